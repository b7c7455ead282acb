package toolx

import (
	"context"
	"errors"
	"testing"
)

func noopHandler(ctx context.Context, args map[string]any) error {
	return nil
}

func TestRegisterAndTools(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(Declaration{
		Name:        "navigate_to",
		Description: "Navigate to a page",
		Parameters: Parameters{
			Properties: map[string]Property{
				"url": {Type: "string", Description: "Destination URL"},
			},
			Required: []string{"url"},
		},
	}, noopHandler)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := reg.Register(Declaration{Name: "filter_products"}, noopHandler); err != nil {
		t.Fatalf("register second: %v", err)
	}

	tools := reg.Tools()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	if tools[0].Function.Name != "navigate_to" || tools[1].Function.Name != "filter_products" {
		t.Errorf("tools out of registration order: %v, %v",
			tools[0].Function.Name, tools[1].Function.Name)
	}
	if tools[0].Type != "function" {
		t.Errorf("expected function tool type, got %q", tools[0].Type)
	}

	params, ok := tools[0].Function.Parameters.(Parameters)
	if !ok {
		t.Fatalf("unexpected parameters type %T", tools[0].Function.Parameters)
	}
	if params.Type != "object" {
		t.Errorf("expected schema type object, got %q", params.Type)
	}
}

func TestRegisterRejectsDuplicatesAndNils(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(Declaration{Name: "nav"}, noopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(Declaration{Name: "nav"}, noopHandler); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if err := reg.Register(Declaration{Name: ""}, noopHandler); err == nil {
		t.Error("expected empty name to fail")
	}
	if err := reg.Register(Declaration{Name: "other"}, nil); err == nil {
		t.Error("expected nil handler to fail")
	}
}

func TestDispatch(t *testing.T) {
	reg := NewRegistry()

	var got map[string]any
	reg.Register(Declaration{Name: "nav"}, func(ctx context.Context, args map[string]any) error {
		got = args
		return nil
	})

	args := map[string]any{"url": "/pricing"}
	if err := reg.Dispatch(context.Background(), "nav", args); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got["url"] != "/pricing" {
		t.Errorf("handler got args %v", got)
	}

	if err := reg.Dispatch(context.Background(), "missing", nil); err == nil {
		t.Error("expected unknown tool to fail")
	}
}

func TestDispatchNilArgs(t *testing.T) {
	reg := NewRegistry()

	reg.Register(Declaration{Name: "nav"}, func(ctx context.Context, args map[string]any) error {
		if args == nil {
			t.Error("handler received nil args")
		}
		return nil
	})

	if err := reg.Dispatch(context.Background(), "nav", nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	reg := NewRegistry()

	reg.Register(Declaration{Name: "boom"}, func(ctx context.Context, args map[string]any) error {
		panic("handler exploded")
	})

	err := reg.Dispatch(context.Background(), "boom", nil)
	if err == nil {
		t.Fatal("expected panic to surface as error")
	}
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	reg := NewRegistry()
	want := errors.New("no such page")

	reg.Register(Declaration{Name: "nav"}, func(ctx context.Context, args map[string]any) error {
		return want
	})

	if err := reg.Dispatch(context.Background(), "nav", nil); !errors.Is(err, want) {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestDescribeUsesRegisteredGenerator(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Declaration{Name: "set_theme"}, noopHandler)
	reg.RegisterFallback("set_theme", func(args map[string]any) string {
		return "Switched the theme"
	})

	if got := reg.Describe("set_theme", nil); got != "Switched the theme." {
		t.Errorf("expected punctuated generator text, got %q", got)
	}
}

func TestDescribeHeuristics(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name string
		args map[string]any
		want string
	}{
		{"navigate_to", map[string]any{"url": "/pricing"}, "Navigated to /pricing."},
		{"navigate_to", nil, "Navigated to the requested page."},
		{"filter_products", nil, "Updated the results for you."},
		{"open_modal", nil, "Opened it for you."},
		{"close_banner", nil, "Closed it."},
		{"set_theme", nil, GenericFallback},
	}

	for _, tc := range cases {
		if got := reg.Describe(tc.name, tc.args); got != tc.want {
			t.Errorf("Describe(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
