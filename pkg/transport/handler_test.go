package transport

import (
	"context"
	"testing"

	"github.com/rhuss/askgate/pkg/api"
)

func TestAnswerFuncAdapter(t *testing.T) {
	called := false
	var receivedReq *api.AskRequest

	fn := AnswerFunc(func(ctx context.Context, req *api.AskRequest) (*api.AskResponse, error) {
		called = true
		receivedReq = req
		return &api.AskResponse{Response: "4"}, nil
	})

	// Verify it satisfies the interface.
	var _ Answerer = fn

	resp, err := fn.Answer(context.Background(), &api.AskRequest{Q: "2+2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected function to be called")
	}
	if receivedReq.Q != "2+2" {
		t.Errorf("expected q %q, got %q", "2+2", receivedReq.Q)
	}
	if resp.Response != "4" {
		t.Errorf("response = %q", resp.Response)
	}
}

func TestAnswerFuncReturnsError(t *testing.T) {
	fn := AnswerFunc(func(ctx context.Context, req *api.AskRequest) (*api.AskResponse, error) {
		return nil, api.NewServerError("test error")
	})

	_, err := fn.Answer(context.Background(), &api.AskRequest{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
