package processor

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// coreProps is the subset of docProps/core.xml shared by docx and pptx.
type coreProps struct {
	XMLName xml.Name `xml:"coreProperties"`
	Title   string   `xml:"title"`
	Creator string   `xml:"creator"`
	Subject string   `xml:"subject"`
}

// validOOXML reports whether the file is a well-formed OOXML archive of the
// given content type (checked against [Content_Types].xml).
func validOOXML(path, contentTypeHint string) bool {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "[Content_Types].xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return false
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return false
		}
		return strings.Contains(string(raw), contentTypeHint)
	}
	return false
}

// readCoreProps parses docProps/core.xml. A missing part is not an error;
// it yields empty properties.
func readCoreProps(path string) (coreProps, error) {
	var props coreProps

	zr, err := zip.OpenReader(path)
	if err != nil {
		return props, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "docProps/core.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return props, fmt.Errorf("open core properties: %w", err)
		}
		err = xml.NewDecoder(rc).Decode(&props)
		rc.Close()
		if err != nil {
			return props, fmt.Errorf("parse core properties: %w", err)
		}
		return props, nil
	}
	return props, nil
}
