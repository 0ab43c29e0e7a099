package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"storefront/firebase"
	"storefront/utils"
)

func TestUploadImage(t *testing.T) {
	d := newTestDeps(t)
	router := d.router()
	admin := userToken(t, "admin-1", "admin")

	w := serve(router, multipartRequest("/api/admin/uploads", "mug.png", "image/png", []byte("png bytes"), admin))
	expectStatus(t, w, http.StatusCreated)
	if got := parseResponse(w)["url"]; got != "https://storage.googleapis.com/test-bucket/products/mug.png" {
		t.Errorf("unexpected url %v", got)
	}
	if string(d.storage.Uploaded["mug.png"]) != "png bytes" {
		t.Error("file content did not reach storage")
	}
}

func TestUploadImageRejects(t *testing.T) {
	d := newTestDeps(t)
	router := d.router()
	admin := userToken(t, "admin-1", "admin")

	w := serve(router, multipartRequest("/api/admin/uploads", "notes.txt", "text/plain", []byte("hi"), admin))
	expectStatus(t, w, http.StatusBadRequest)

	big := bytes.Repeat([]byte("a"), utils.MaxUploadSize+1)
	w = serve(router, multipartRequest("/api/admin/uploads", "big.jpg", "image/jpeg", big, admin))
	expectStatus(t, w, http.StatusBadRequest)

	w = serve(router, multipartRequest("/api/admin/uploads", "mug.png", "image/png", []byte("x"), userToken(t, "u", "customer")))
	expectStatus(t, w, http.StatusForbidden)

	if len(d.storage.Uploaded) != 0 {
		t.Errorf("nothing should have been stored, got %v", d.storage.Uploaded)
	}
}

func TestUploadImageStorageErrors(t *testing.T) {
	d := newTestDeps(t)
	router := d.router()
	admin := userToken(t, "admin-1", "admin")

	d.storage.UploadFn = func(string, string, []byte) (string, error) { return "", firebase.ErrNotConfigured }
	w := serve(router, multipartRequest("/api/admin/uploads", "mug.png", "image/png", []byte("x"), admin))
	expectStatus(t, w, http.StatusServiceUnavailable)

	d.storage.UploadFn = func(string, string, []byte) (string, error) { return "", errors.New("bucket gone") }
	w = serve(router, multipartRequest("/api/admin/uploads", "mug.png", "image/png", []byte("x"), admin))
	expectStatus(t, w, http.StatusBadGateway)
}

func TestDeleteImage(t *testing.T) {
	d := newTestDeps(t)
	router := d.router()
	admin := userToken(t, "admin-1", "admin")

	stored := "https://storage.googleapis.com/test-bucket/products/mug.png"
	w := serve(router, authRequest("DELETE", "/api/admin/uploads?url="+url.QueryEscape(stored), nil, admin))
	expectStatus(t, w, http.StatusOK)
	if len(d.storage.DeleteCalls) != 1 || d.storage.DeleteCalls[0] != stored {
		t.Errorf("unexpected delete calls %v", d.storage.DeleteCalls)
	}

	w = serve(router, authRequest("DELETE", "/api/admin/uploads?url="+url.QueryEscape("https://example.com/x.png"), nil, admin))
	expectStatus(t, w, http.StatusBadRequest)
}
