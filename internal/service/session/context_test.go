package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"eppdetect/internal/model"
)

type memoryMirror struct {
	mu      sync.Mutex
	stored  *model.ComplianceVerdict
	failErr error
}

func (m *memoryMirror) Store(_ context.Context, v model.ComplianceVerdict) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = &v
	return nil
}

func (m *memoryMirror) Load(context.Context) (model.ComplianceVerdict, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		return model.ComplianceVerdict{}, false, nil
	}
	return *m.stored, true, nil
}

// ========================================
// Session Context Tests
// ========================================

func TestContext_EmptyByDefault(t *testing.T) {
	if _, ok := New().Get(); ok {
		t.Error("Expected no verdict on a new context")
	}
}

func TestContext_SetOverwrites(t *testing.T) {
	c := New()
	c.Set(model.ComplianceVerdict{Source: "a.jpg", TotalPersons: 2})
	c.Set(model.ComplianceVerdict{Source: "b.jpg", TotalPersons: 1})

	v, ok := c.Get()
	if !ok {
		t.Fatal("Expected a verdict")
	}
	if v.Source != "b.jpg" || v.TotalPersons != 1 {
		t.Errorf("Expected last written verdict, got %+v", v)
	}
}

func TestContext_ConcurrentWritersLeaveOneWholeVerdict(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(model.ComplianceVerdict{Source: fmt.Sprintf("img%d.jpg", i), TotalPersons: i})
			c.Get()
		}(i)
	}
	wg.Wait()

	v, ok := c.Get()
	if !ok {
		t.Fatal("Expected a verdict")
	}
	if v.Source != fmt.Sprintf("img%d.jpg", v.TotalPersons) {
		t.Errorf("Verdict fields come from different writes: %+v", v)
	}
}

func TestContext_MirrorAndRestore(t *testing.T) {
	mirror := &memoryMirror{}
	c := New().WithMirror(mirror, nil)
	c.Set(model.ComplianceVerdict{Source: "site.jpg", TotalPersons: 3})

	restored := New().WithMirror(mirror, nil)
	if err := restored.Restore(context.Background()); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	v, ok := restored.Get()
	if !ok || v.Source != "site.jpg" {
		t.Errorf("Expected restored verdict, got %+v (ok=%v)", v, ok)
	}
}

func TestContext_MirrorMatchesLocalAfterConcurrentWrites(t *testing.T) {
	mirror := &memoryMirror{}
	c := New().WithMirror(mirror, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(model.ComplianceVerdict{Source: fmt.Sprintf("img%d.jpg", i)})
		}(i)
	}
	wg.Wait()

	local, _ := c.Get()
	mirrored, ok, _ := mirror.Load(context.Background())
	if !ok || mirrored.Source != local.Source {
		t.Errorf("Expected mirror to hold %s, got %s", local.Source, mirrored.Source)
	}
}

func TestContext_MirrorFailureKeepsLocalVerdict(t *testing.T) {
	c := New().WithMirror(&memoryMirror{failErr: errors.New("redis down")}, nil)
	c.Set(model.ComplianceVerdict{Source: "x.jpg"})

	if v, ok := c.Get(); !ok || v.Source != "x.jpg" {
		t.Errorf("Expected local verdict despite mirror failure, got %+v", v)
	}
}

func TestContext_RestoreDoesNotOverwrite(t *testing.T) {
	mirror := &memoryMirror{}
	mirror.Store(context.Background(), model.ComplianceVerdict{Source: "old.jpg"})

	c := New().WithMirror(mirror, nil)
	c.mirror = nil
	c.Set(model.ComplianceVerdict{Source: "new.jpg"})
	c.mirror = mirror

	if err := c.Restore(context.Background()); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if v, _ := c.Get(); v.Source != "new.jpg" {
		t.Errorf("Restore overwrote a newer verdict: %s", v.Source)
	}
}
