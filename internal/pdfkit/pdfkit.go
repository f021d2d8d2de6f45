// Package pdfkit wraps the pdfcpu operations used on timesheet PDFs.
package pdfkit

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"cartellino/internal/domain"
)

func newConfig(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
		conf.OwnerPW = password
	}
	return conf
}

// Decrypt removes the user and owner passwords from a PDF. A wrong password
// yields domain.ErrEncryptedDocument.
func Decrypt(data []byte, password string) ([]byte, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &out, newConfig(password)); err != nil {
		if errors.Is(err, pdfcpu.ErrWrongPassword) {
			return nil, domain.ErrEncryptedDocument
		}
		return nil, fmt.Errorf("decrypting pdf: %w", err)
	}
	return out.Bytes(), nil
}

// Merge concatenates PDFs in the given order without divider pages.
func Merge(docs [][]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("merging pdf: %w", domain.ErrEmptyDocument)
	}
	if len(docs) == 1 {
		return docs[0], nil
	}
	readers := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		readers[i] = bytes.NewReader(d)
	}
	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, newConfig("")); err != nil {
		return nil, fmt.Errorf("merging pdf: %w", err)
	}
	return out.Bytes(), nil
}

// PageCount returns the number of pages of a PDF.
func PageCount(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, domain.ErrEmptyDocument
	}
	n, err := api.PageCount(bytes.NewReader(data), newConfig(""))
	if err != nil {
		return 0, fmt.Errorf("counting pdf pages: %w", err)
	}
	return n, nil
}
