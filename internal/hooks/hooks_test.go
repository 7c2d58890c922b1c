package hooks

import (
	"errors"
	"testing"

	"github.com/go-while/go-pugwiki/internal/models"
)

func TestRunOrderAndAbort(t *testing.T) {
	r := NewRegistry()
	var calls []string
	r.Register("X", "first", func(args ...interface{}) (bool, error) {
		calls = append(calls, "first")
		return true, nil
	})
	r.Register("X", "second", func(args ...interface{}) (bool, error) {
		calls = append(calls, "second")
		return false, nil
	})
	r.Register("X", "third", func(args ...interface{}) (bool, error) {
		calls = append(calls, "third")
		return true, nil
	})

	ok, err := r.Run("X")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected false once a handler aborts")
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("unexpected call order %v", calls)
	}
}

func TestRunWithoutHandlers(t *testing.T) {
	ok, err := NewRegistry().Run("Nothing")
	if !ok || err != nil {
		t.Errorf("empty hook should succeed, got %t %v", ok, err)
	}
}

func TestRunError(t *testing.T) {
	r := NewRegistry()
	r.Register("X", "broken", func(args ...interface{}) (bool, error) {
		return true, errors.New("boom")
	})
	if _, err := r.Run("X"); err == nil {
		t.Errorf("expected handler error to be returned")
	}
}

func TestSpecialStatsAddExtra(t *testing.T) {
	r := NewRegistry()
	type pageContext struct{ lang string }
	r.OnSpecialStatsAddExtra("test", func(extra *models.ExtraStats, rc interface{}) (bool, error) {
		pc, ok := rc.(*pageContext)
		if !ok || pc.lang != "de" {
			t.Errorf("request context not passed through: %#v", rc)
		}
		extra.AddItem("statistics-test", 5)
		return true, nil
	})

	var extra models.ExtraStats
	ok, err := r.RunSpecialStatsAddExtra(&extra, &pageContext{lang: "de"})
	if !ok || err != nil {
		t.Fatalf("expected success, got %t %v", ok, err)
	}
	if extra.Len() != 1 || extra.Entries[0].Legacy.Key != "statistics-test" {
		t.Errorf("handler row missing: %+v", extra)
	}
	if r.Count(SpecialStatsAddExtra) != 1 {
		t.Errorf("expected one registered handler")
	}
}

func TestTypedHandlerRejectsBadArguments(t *testing.T) {
	r := NewRegistry()
	r.OnSpecialStatsAddExtra("test", func(extra *models.ExtraStats, rc interface{}) (bool, error) {
		return true, nil
	})
	if _, err := r.Run(SpecialStatsAddExtra, "not extra stats", nil); err == nil {
		t.Errorf("expected type error")
	}
	if _, err := r.Run(SpecialStatsAddExtra); err == nil {
		t.Errorf("expected argument count error")
	}
}
