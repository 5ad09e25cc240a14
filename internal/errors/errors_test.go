package errors

import (
	"errors"
	"testing"
)

func TestErrorMessageFormat(t *testing.T) {
	cause := errors.New("index not ready")
	err := Wrap(CodeSearchExecutionError, "search failed", cause)

	expected := "SEARCH_EXECUTION_ERROR: search failed: index not ready"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestErrorMessageFormatNoCause(t *testing.T) {
	err := New(CodeInvalidQuery, "query too long")
	expected := "INVALID_QUERY: query too long"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestUnwrapAndErrorsIs(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(CodeCacheError, "l2 fault", cause)

	if err.Unwrap() != cause {
		t.Error("expected Unwrap to return the wrapped cause")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find cause through Unwrap")
	}
}

func TestUnwrapNilCause(t *testing.T) {
	err := New(CodeShutdown, "engine closed")
	if err.Unwrap() != nil {
		t.Error("expected Unwrap to return nil when there is no cause")
	}
}

func TestErrorChaining(t *testing.T) {
	root := errors.New("disk full")
	cacheErr := Wrap(CodeCacheError, "l2 write failed", root)
	searchErr := Wrap(CodeSearchExecutionError, "search aborted", cacheErr)

	if !errors.Is(searchErr, root) {
		t.Error("expected errors.Is to find the root cause through a two-level chain")
	}
	if !errors.Is(searchErr, cacheErr) {
		t.Error("expected errors.Is to find the intermediate cache error")
	}
}

func TestIsHelper(t *testing.T) {
	cause := New(CodeCacheError, "l1 fault")
	searchErr := Wrap(CodeSearchExecutionError, "search aborted", cause)

	if !Is(searchErr, CodeCacheError) {
		t.Error("expected Is to find CodeCacheError in the chain")
	}
	if Is(searchErr, CodeSearchTimeout) {
		t.Error("expected Is not to find an absent code")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	if NotInitialized().Code != CodeSearchNotInitialized {
		t.Error("expected NotInitialized to carry CodeSearchNotInitialized")
	}
	if ShutdownError().Code != CodeShutdown {
		t.Error("expected ShutdownError to carry CodeShutdown")
	}
	if Timeout("vsam status", "800ms").Code != CodeSearchTimeout {
		t.Error("expected Timeout to carry CodeSearchTimeout")
	}
	if QueryTooLong(1200, 1000).Code != CodeInvalidQuery {
		t.Error("expected QueryTooLong to carry CodeInvalidQuery")
	}
}
