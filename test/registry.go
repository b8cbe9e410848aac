// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Package describes a package served by a fake [Registry].
type Package struct {
	Name     string   // package name.
	Emails   []string // maintainer e-mail addresses.
	Statuses []int    // HTTP statuses to answer with before finally serving the metadata.
	Raw      string   // if non-empty, raw metadata document to serve instead.
}

// Registry is a fake package registry serving a bulk listing of all package
// names at "/_all_docs", as well as per-package metadata at "/<name>".
type Registry struct {
	srv      *httptest.Server
	mu       sync.Mutex
	names    []string
	packages map[string]*Package
	fetches  map[string]int
	listing  int // HTTP status for the listing; 0 means http.StatusOK.
}

// StartRegistry starts serving the specified packages. The listing will
// contain the package names in the order specified. Stop the registry using
// [Registry.Close].
func StartRegistry(pkgs ...Package) *Registry {
	r := &Registry{
		packages: map[string]*Package{},
		fetches:  map[string]int{},
	}
	for idx := range pkgs {
		pkg := pkgs[idx]
		r.names = append(r.names, pkg.Name)
		r.packages[pkg.Name] = &pkg
	}
	r.srv = httptest.NewServer(http.HandlerFunc(r.serve))
	return r
}

// ListingURL returns the URL of the bulk package listing.
func (r *Registry) ListingURL() string { return r.srv.URL + "/_all_docs" }

// MetadataURL returns the base URL for package metadata documents.
func (r *Registry) MetadataURL() string { return r.srv.URL + "/" }

// FailListing makes the registry answer listing requests with the specified
// HTTP status.
func (r *Registry) FailListing(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listing = status
}

// Fetches returns the number of metadata requests for the specified package.
func (r *Registry) Fetches(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches[name]
}

// Close shuts down the registry.
func (r *Registry) Close() { r.srv.Close() }

func (r *Registry) serve(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path == "/_all_docs" {
		r.serveListing(w)
		return
	}
	name := strings.TrimPrefix(req.URL.Path, "/")
	r.mu.Lock()
	r.fetches[name]++
	pkg, ok := r.packages[name]
	status := http.StatusOK
	if ok && len(pkg.Statuses) > 0 {
		status, pkg.Statuses = pkg.Statuses[0], pkg.Statuses[1:]
	}
	r.mu.Unlock()
	switch {
	case !ok:
		http.Error(w, `{"error":"not_found","reason":"missing"}`, http.StatusNotFound)
		return
	case status != http.StatusOK:
		http.Error(w, `{"error":"nope"}`, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if pkg.Raw != "" {
		_, _ = w.Write([]byte(pkg.Raw))
		return
	}
	type maintainer struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	doc := struct {
		ID          string       `json:"_id"`
		Name        string       `json:"name"`
		Maintainers []maintainer `json:"maintainers"`
	}{ID: pkg.Name, Name: pkg.Name, Maintainers: []maintainer{}}
	for idx, email := range pkg.Emails {
		doc.Maintainers = append(doc.Maintainers, maintainer{
			Name:  fmt.Sprintf("maintainer-%d", idx),
			Email: email,
		})
	}
	_ = json.NewEncoder(w).Encode(doc)
}

// serveListing writes the listing row by row, flushing after each row so that
// clients see a trickling stream.
func (r *Registry) serveListing(w http.ResponseWriter) {
	r.mu.Lock()
	status := r.listing
	names := append([]string(nil), r.names...)
	r.mu.Unlock()
	if status != 0 && status != http.StatusOK {
		http.Error(w, "listing unavailable", status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	flusher, _ := w.(http.Flusher)
	fmt.Fprintf(w, `{"total_rows":%d,"offset":0,"rows":[`+"\n", len(names))
	for idx, name := range names {
		sep := ","
		if idx == len(names)-1 {
			sep = ""
		}
		key, _ := json.Marshal(name)
		fmt.Fprintf(w, `{"id":%s,"key":%s,"value":{"rev":"1-%08x"}}%s`+"\n", key, key, idx, sep)
		if flusher != nil {
			flusher.Flush()
		}
	}
	fmt.Fprint(w, "]}\n")
}
