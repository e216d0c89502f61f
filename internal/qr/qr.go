// Package qr renders the labels stuck on materials, machines and job folders.
package qr

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 256

type Renderer struct {
	baseURL string
	size    int
}

// NewRenderer builds a renderer whose payloads link to baseURL/scan/{id}.
// An empty baseURL encodes the bare id.
func NewRenderer(baseURL string) *Renderer {
	return &Renderer{baseURL: strings.TrimRight(baseURL, "/"), size: defaultSize}
}

func (r *Renderer) WithSize(px int) *Renderer {
	r.size = px
	return r
}

func (r *Renderer) Payload(id string) string {
	if r.baseURL == "" {
		return id
	}

	return r.baseURL + "/scan/" + url.PathEscape(id)
}

func (r *Renderer) PNG(id string) ([]byte, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("empty id")
	}

	png, err := qrcode.Encode(r.Payload(id), qrcode.Medium, r.size)
	if err != nil {
		return nil, fmt.Errorf("encoding qr for %s: %w", id, err)
	}

	return png, nil
}
