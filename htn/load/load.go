// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package load reads YAML domain and problem files into an htn.Problem.
package load

import (
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/domschrei/lilotane-sub000/htn"
)

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

// Open opens p for reading, decompressing ".gz" and ".bz2" files.  "-"
// is standard input.
func Open(p string) (io.ReadCloser, error) {
	if p == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(p, ".gz"):
		r, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return readCloser{Reader: r, close: func() error { r.Close(); return f.Close() }}, nil
	case strings.HasSuffix(p, ".bz2"):
		return readCloser{Reader: bzip2.NewReader(f), close: f.Close}, nil
	}
	return f, nil
}

// Domain decodes a domain from r.
func Domain(r io.Reader) (*htn.Domain, error) {
	d := &htn.Domain{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("decoding domain: %w", err)
	}
	return d, nil
}

// Problem decodes a problem without its domain from r.
func Problem(r io.Reader) (*htn.Problem, error) {
	p := &htn.Problem{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("decoding problem: %w", err)
	}
	return p, nil
}

// Files reads the domain and problem files concurrently.
func Files(ctx context.Context, domainPath, problemPath string) (*htn.Problem, error) {
	var d *htn.Domain
	var p *htn.Problem
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := Open(domainPath)
		if err != nil {
			return err
		}
		defer r.Close()
		d, err = Domain(r)
		if err != nil {
			return fmt.Errorf("%s: %w", domainPath, err)
		}
		return nil
	})
	g.Go(func() error {
		r, err := Open(problemPath)
		if err != nil {
			return err
		}
		defer r.Close()
		p, err = Problem(r)
		if err != nil {
			return fmt.Errorf("%s: %w", problemPath, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.Domain = *d
	return p, nil
}

// Write encodes the domain and problem of p to two writers.
func Write(dw, pw io.Writer, p *htn.Problem) error {
	enc := yaml.NewEncoder(dw)
	enc.SetIndent(2)
	if err := enc.Encode(&p.Domain); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	enc = yaml.NewEncoder(pw)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}
