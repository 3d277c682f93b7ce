package processor

import (
	"archive/zip"
	"bytes"

	"github.com/antchfx/xmlquery"
	"github.com/xuri/excelize/v2"
)

const appPropsPart = "docProps/app.xml"

// appFields are the extended properties worth reporting.
var appFields = []string{"Application", "AppVersion", "Company", "Manager", "Template"}

func scanPackage(path string) (detailSet, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errorf(DecodeError, "cannot open as ZIP: %w", err)
	}
	defer zr.Close()

	corePart, err := inspectPackage(&zr.Reader)
	if err != nil {
		return nil, newError(DecodeError, err)
	}

	set := detailSet{}
	for _, f := range zr.File {
		switch f.Name {
		case corePart:
			if err := addXMLChildren(set, f, nil); err != nil {
				return nil, err
			}
		case appPropsPart:
			if err := addXMLChildren(set, f, appFields); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// addXMLChildren records the non-empty text of the root element's children.
// A non-empty only restricts which children are recorded.
func addXMLChildren(set detailSet, f *zip.File, only []string) error {
	data, err := readZipFile(f)
	if err != nil {
		return errorf(DecodeError, "cannot read %s: %w", f.Name, err)
	}
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return errorf(DecodeError, "cannot parse %s: %w", f.Name, err)
	}
	nodes, err := xmlquery.QueryAll(doc, "/*/*")
	if err != nil {
		return errorf(DecodeError, "cannot query %s: %w", f.Name, err)
	}

	allowed := make(map[string]bool, len(only))
	for _, name := range only {
		allowed[name] = true
	}
	for _, n := range nodes {
		if len(only) > 0 && !allowed[n.Data] {
			continue
		}
		set.add(n.Data, n.InnerText())
	}
	return nil
}

func scanWorkbook(path string) (detailSet, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errorf(DecodeError, "cannot open workbook: %w", err)
	}
	defer wb.Close()

	set := detailSet{}
	props, err := wb.GetDocProps()
	if err != nil {
		return nil, errorf(DecodeError, "cannot read document properties: %w", err)
	}
	set.add("creator", props.Creator)
	set.add("lastModifiedBy", props.LastModifiedBy)
	set.add("title", props.Title)
	set.add("subject", props.Subject)
	set.add("keywords", props.Keywords)
	set.add("description", props.Description)
	set.add("category", props.Category)
	set.add("created", props.Created)
	set.add("modified", props.Modified)

	app, err := wb.GetAppProps()
	if err != nil {
		return nil, errorf(DecodeError, "cannot read application properties: %w", err)
	}
	set.add("Application", app.Application)
	set.add("AppVersion", app.AppVersion)
	set.add("Company", app.Company)
	return set, nil
}
