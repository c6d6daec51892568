package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	assert.Equal(t, "MANIFEST_NOT_FOUND: no manifest", New(CodeManifestNotFound, "no manifest").Error())

	cause := errors.New("boom")
	err := Wrap(cause, CodeOracleTransport, "oracle failed")
	assert.Equal(t, "ORACLE_TRANSPORT: oracle failed (boom)", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestCodeOfWrappedChain(t *testing.T) {
	inner := Wrapf(errors.New("eof"), CodeManifestMalformed, "bad %s", "json")
	outer := fmt.Errorf("loading foo: %w", inner)

	assert.Equal(t, CodeManifestMalformed, CodeOf(outer))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeInvalidVersion, http.StatusBadRequest},
		{CodeManifestNotFound, http.StatusNotFound},
		{CodeManifestMalformed, http.StatusUnprocessableEntity},
		{CodeOracleTransport, http.StatusBadGateway},
		{CodeOracleUnparseable, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(New(tt.code, "x")), tt.code)
	}
}
