package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"gopkg.in/yaml.v3"
)

// lifecycleModule records lifecycle calls into a shared trace.
type lifecycleModule struct {
	id    string
	trace *[]string

	configured struct {
		Name string `yaml:"name"`
	}

	configureErr error
	provisionErr error
	validateErr  error
	startErr     error
}

func (m *lifecycleModule) ModuleInfo() ModuleInfo {
	return ModuleInfo{
		ID: ModuleID(m.id),
		// New returns the same instance so the test can inspect it.
		New: func() Module { return m },
	}
}

func (m *lifecycleModule) Configure(node *yaml.Node) error {
	*m.trace = append(*m.trace, m.id+".configure")
	if m.configureErr != nil {
		return m.configureErr
	}
	return node.Decode(&m.configured)
}

func (m *lifecycleModule) Provision(*AppContext) error {
	*m.trace = append(*m.trace, m.id+".provision")
	return m.provisionErr
}

func (m *lifecycleModule) Validate() error {
	*m.trace = append(*m.trace, m.id+".validate")
	return m.validateErr
}

func (m *lifecycleModule) Start() error {
	*m.trace = append(*m.trace, m.id+".start")
	return m.startErr
}

func (m *lifecycleModule) Stop(context.Context) error {
	*m.trace = append(*m.trace, m.id+".stop")
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func configNode(t *testing.T, raw string) yaml.Node {
	t.Helper()
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	return *node.Content[0]
}

func TestLoadModule_LifecycleOrder(t *testing.T) {
	resetRegistry()

	var trace []string
	RegisterModule(&lifecycleModule{id: "test.lc", trace: &trace})

	ctx := NewAppContext(testLogger(), t.TempDir()).WithModuleConfigs(map[string]yaml.Node{
		"test.lc": configNode(t, "name: configured-value"),
	})

	mod, err := ctx.LoadModule("test.lc")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := []string{"test.lc.configure", "test.lc.provision", "test.lc.validate"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v", trace)
	}
	for i, w := range want {
		if trace[i] != w {
			t.Errorf("trace[%d] = %q, want %q", i, trace[i], w)
		}
	}

	lm := mod.(*lifecycleModule)
	if lm.configured.Name != "configured-value" {
		t.Errorf("configured name = %q", lm.configured.Name)
	}
}

func TestLoadModule_UnknownID(t *testing.T) {
	resetRegistry()

	ctx := NewAppContext(testLogger(), t.TempDir())
	if _, err := ctx.LoadModule("test.nope"); err == nil {
		t.Error("expected error for unknown module")
	}
}

func TestLoadModule_ValidateFailure(t *testing.T) {
	resetRegistry()

	var trace []string
	RegisterModule(&lifecycleModule{
		id:          "test.bad",
		trace:       &trace,
		validateErr: errors.New("bad config"),
	})

	ctx := NewAppContext(testLogger(), t.TempDir())
	if _, err := ctx.LoadModule("test.bad"); err == nil {
		t.Error("validate error should fail the load")
	}
}

func TestApp_StartStopOrdering(t *testing.T) {
	resetRegistry()

	var trace []string
	RegisterModule(&lifecycleModule{id: "test.first", trace: &trace})
	RegisterModule(&lifecycleModule{id: "test.second", trace: &trace})

	ctx := NewAppContext(testLogger(), t.TempDir())
	app := NewApp(ctx)
	if err := app.LoadModules([]string{"test.first", "test.second"}); err != nil {
		t.Fatalf("load: %v", err)
	}

	trace = trace[:0]
	if err := app.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	app.Stop()

	want := []string{"test.first.start", "test.second.start", "test.second.stop", "test.first.stop"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v", trace)
	}
	for i, w := range want {
		if trace[i] != w {
			t.Errorf("trace[%d] = %q, want %q", i, trace[i], w)
		}
	}
}

func TestApp_StartFailureStopsStartedModules(t *testing.T) {
	resetRegistry()

	var trace []string
	RegisterModule(&lifecycleModule{id: "test.ok", trace: &trace})
	RegisterModule(&lifecycleModule{id: "test.boom", trace: &trace, startErr: errors.New("no port")})

	ctx := NewAppContext(testLogger(), t.TempDir())
	app := NewApp(ctx)
	if err := app.LoadModules([]string{"test.ok", "test.boom"}); err != nil {
		t.Fatalf("load: %v", err)
	}

	trace = trace[:0]
	if err := app.Start(); err == nil {
		t.Fatal("expected start error")
	}

	want := []string{"test.ok.start", "test.boom.start", "test.ok.stop"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v", trace)
	}
	for i, w := range want {
		if trace[i] != w {
			t.Errorf("trace[%d] = %q, want %q", i, trace[i], w)
		}
	}
}

func TestAppContext_ServiceRegistrySharedAcrossScopes(t *testing.T) {
	t.Parallel()

	root := NewAppContext(testLogger(), t.TempDir())
	scoped := root.ForModule("test.scope")

	scoped.RegisterService("shared.thing", 42)

	got, ok := root.Service("shared.thing")
	if !ok {
		t.Fatal("service not visible from the root scope")
	}
	if got.(int) != 42 {
		t.Errorf("value = %v", got)
	}
	if _, ok := root.Service("absent"); ok {
		t.Error("unregistered service should not resolve")
	}
}

func TestAppContext_LaterRegistrationReplaces(t *testing.T) {
	t.Parallel()

	ctx := NewAppContext(testLogger(), t.TempDir())
	ctx.RegisterService("x", "old")
	ctx.RegisterService("x", "new")

	got, _ := ctx.Service("x")
	if got.(string) != "new" {
		t.Errorf("value = %v", got)
	}
}

func TestApp_AppendModuleJoinsLifecycle(t *testing.T) {
	resetRegistry()

	var trace []string
	app := NewApp(NewAppContext(testLogger(), t.TempDir()))
	app.AppendModule("test.injected", &lifecycleModule{id: "test.injected", trace: &trace})

	if err := app.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	app.Stop()

	if len(trace) != 2 || trace[0] != "test.injected.start" || trace[1] != "test.injected.stop" {
		t.Errorf("trace = %v", trace)
	}
}
