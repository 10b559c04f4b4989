package main

import (
	"errors"
	"testing"
)

func TestUploadValidation(t *testing.T) {
	s := newTestSession(t)

	t.Run("requires exactly a name and a URL", func(t *testing.T) {
		var vErr *validationError
		err := handleUpload(s, testMessage("200000000000000001"), []string{"justaname"})
		if !errors.As(err, &vErr) {
			t.Logf("Expected a validation error, got %v", err)
			t.Fail()
		}
	})

	t.Run("a name that sanitizes to nothing is refused before any fetch", func(t *testing.T) {
		var vErr *validationError
		err := handleUpload(s, testMessage("200000000000000001"), []string{"!!!", "https://example.com/image.png"})
		if !errors.As(err, &vErr) {
			t.Logf("Expected a validation error, got %v", err)
			t.Fail()
		}
	})
}
