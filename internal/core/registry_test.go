package core

import (
	"testing"
)

type registeredModule struct {
	id string
}

func (m *registeredModule) ModuleInfo() ModuleInfo {
	return ModuleInfo{
		ID:  ModuleID(m.id),
		New: func() Module { return &registeredModule{id: m.id} },
	}
}

func TestRegisterAndGetModule(t *testing.T) {
	resetRegistry()

	RegisterModule(&registeredModule{id: "test.alpha"})
	RegisterModule(&registeredModule{id: "test.beta"})

	info, ok := GetModule("test.alpha")
	if !ok {
		t.Fatal("test.alpha not found")
	}
	if info.ID != "test.alpha" {
		t.Errorf("ID = %q", info.ID)
	}
	if _, ok := GetModule("test.missing"); ok {
		t.Error("unknown ID should not resolve")
	}
}

func TestGetModules_SortedByID(t *testing.T) {
	resetRegistry()

	RegisterModule(&registeredModule{id: "test.zeta"})
	RegisterModule(&registeredModule{id: "test.alpha"})
	RegisterModule(&registeredModule{id: "test.mid"})

	got := GetModules()
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	want := []string{"test.alpha", "test.mid", "test.zeta"}
	for i, w := range want {
		if string(got[i].ID) != w {
			t.Errorf("got[%d] = %q, want %q", i, got[i].ID, w)
		}
	}
}

func TestRegisterModule_DuplicatePanics(t *testing.T) {
	resetRegistry()

	RegisterModule(&registeredModule{id: "test.dup"})

	defer func() {
		if recover() == nil {
			t.Error("duplicate registration should panic")
		}
	}()
	RegisterModule(&registeredModule{id: "test.dup"})
}

func TestRegisterModule_InvalidInfoPanics(t *testing.T) {
	resetRegistry()

	defer func() {
		if recover() == nil {
			t.Error("empty module ID should panic")
		}
	}()
	RegisterModule(&registeredModule{id: ""})
}
