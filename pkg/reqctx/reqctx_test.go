package reqctx

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeClaims struct {
	uid  uuid.UUID
	role string
	exp  time.Time
}

func (f fakeClaims) GetUserID() uuid.UUID     { return f.uid }
func (f fakeClaims) GetRole() string          { return f.role }
func (f fakeClaims) GetSessionID() *uuid.UUID { return nil }
func (f fakeClaims) GetTokenType() string     { return "access" }
func (f fakeClaims) IsExpired() bool          { return time.Now().After(f.exp) }

func TestClaimsRoundTrip(t *testing.T) {
	uid := uuid.New()
	ctx := WithClaims(context.Background(), fakeClaims{uid: uid, role: "manager", exp: time.Now().Add(time.Hour)})

	got, ok := UserIDFromContext(ctx)
	if !ok || got != uid {
		t.Errorf("UserIDFromContext = %v, %v", got, ok)
	}
	if RoleFromContext(ctx) != "manager" {
		t.Errorf("RoleFromContext = %q", RoleFromContext(ctx))
	}
	if !IsAuthenticated(ctx) {
		t.Error("expected authenticated context")
	}
}

func TestExpiredClaimsNotAuthenticated(t *testing.T) {
	ctx := WithClaims(context.Background(), fakeClaims{uid: uuid.New(), exp: time.Now().Add(-time.Minute)})
	if IsAuthenticated(ctx) {
		t.Error("expired claims must not authenticate")
	}
}

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := UserIDFromContext(ctx); ok {
		t.Error("expected no user id")
	}
	if RoleFromContext(ctx) != "" {
		t.Error("expected empty role")
	}
	if RequestIDFromContext(ctx) != "" {
		t.Error("expected empty request id")
	}
	defer func() {
		if recover() == nil {
			t.Error("MustClaims should panic without claims")
		}
	}()
	MustClaims(ctx)
}

func TestNewChildSpanKeepsTrace(t *testing.T) {
	root := NewTraceInfo()
	ctx := WithTrace(context.Background(), root)
	child := NewChildSpan(ctx)
	if child.TraceID != root.TraceID || child.ParentID != root.SpanID {
		t.Errorf("child = %+v, root = %+v", child, root)
	}
	if len(root.TraceID) != 32 || len(root.SpanID) != 16 {
		t.Errorf("unexpected id lengths: %q %q", root.TraceID, root.SpanID)
	}
}
