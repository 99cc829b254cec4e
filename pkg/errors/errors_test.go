package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeSuperseded, status: http.StatusConflict, publicMsg: "request superseded by a newer one", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotFound, "quotation 7 not found"))
	if got := As(err); got == nil || got.Code() != CodeNotFound {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestCodeHelpers(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("db down"), "save quotation")
	if CodeOf(err) != CodeDependency {
		t.Fatalf("expected dependency code, got %s", CodeOf(err))
	}
	if !IsCode(err, CodeDependency) {
		t.Fatalf("expected IsCode to match")
	}
	if IsCode(stdErrors.New("plain"), CodeDependency) {
		t.Fatalf("plain errors carry no code")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("plain errors should map to internal")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("handler: %w", Wrap(CodeNotFound, stdErrors.New("record not found"), "load quotation"))
	d := Dump(err)
	if d.Code != CodeNotFound {
		t.Fatalf("expected not found code in dump, got %s", d.Code)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected chain of 3, got %d: %v", len(d.Chain), d.Chain)
	}
	if d.DB != nil {
		t.Fatalf("expected no db diagnostics, got %+v", d.DB)
	}
	if d.Retryable {
		t.Fatal("not found is not retryable")
	}
}

func TestDiagnoseReadsDriverErrors(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_products_sku", TableName: "products"}
	d := Diagnose(fmt.Errorf("insert: %w", pgxErr))
	if d == nil || d.Code != "23505" || d.Constraint != "uq_products_sku" {
		t.Fatalf("unexpected pgx diagnostics: %+v", d)
	}

	pqErr := &pq.Error{Code: "23503", Constraint: "fk_dynamic_attributes_product"}
	d = Diagnose(Wrap(CodeConflict, pqErr, "insert attribute"))
	if d == nil || d.Code != "23503" || d.Constraint != "fk_dynamic_attributes_product" {
		t.Fatalf("unexpected pq diagnostics: %+v", d)
	}

	if Diagnose(stdErrors.New("plain")) != nil {
		t.Fatal("plain errors carry no diagnostics")
	}
}

func TestFormattedConstructors(t *testing.T) {
	err := Newf(CodeNotFound, "quotation %d not found", 7)
	if err.Message() != "quotation 7 not found" {
		t.Fatalf("unexpected message %q", err.Message())
	}
	if err.Error() != "NOT_FOUND: quotation 7 not found" {
		t.Fatalf("unexpected error string %q", err.Error())
	}

	wrapped := Wrapf(CodeDependency, stdErrors.New("conn reset"), "db: %s %s", "save", "quotation")
	if wrapped.Error() != "DEPENDENCY_ERROR: db: save quotation: conn reset" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestInvalidNamesField(t *testing.T) {
	err := Invalid("currency", "Unsupported currency")
	if err.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", err.Code())
	}
	details, ok := err.Details().(map[string]string)
	if !ok || details["currency"] != "Unsupported currency" {
		t.Fatalf("unexpected details %#v", err.Details())
	}
}

func TestNilErrorIsSafe(t *testing.T) {
	var e *Error
	if e.Code() != CodeInternal || e.Message() != "" || e.Error() != "" || e.Unwrap() != nil {
		t.Fatalf("nil *Error accessors should return zero values")
	}
	if e.WithDetails("x") != nil {
		t.Fatalf("WithDetails on nil should stay nil")
	}
}
