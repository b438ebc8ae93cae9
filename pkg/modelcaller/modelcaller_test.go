package modelcaller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatResponse(content string) string {
	return `{"choices": [{"message": {"role": "assistant", "content": ` + mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestCompleteSuccess(t *testing.T) {
	var gotReq ChatRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "POST", r.Method)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(chatResponse(`{"test_cases": []}`)))
	}))
	defer server.Close()

	client := NewClient(Options{
		BaseURL:      server.URL,
		APIKey:       "sk-test",
		Model:        "test-model",
		SystemPrompt: "系统设定",
		Temperature:  0.3,
		MaxTokens:    2048,
	})

	content, err := client.Complete(context.Background(), "生成用例", "AI生成")
	require.NoError(t, err)
	assert.Equal(t, `{"test_cases": []}`, content)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, 0.3, gotReq.Temperature)
	assert.Equal(t, 2048, gotReq.MaxTokens)
	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "系统设定", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "生成用例", gotReq.Messages[1].Content)
}

func TestCompleteRetriesThenSucceeds(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(chatResponse("ok")))
	}))
	defer server.Close()

	client := NewClient(Options{
		BaseURL:        server.URL,
		Model:          "m",
		RetryCount:     2,
		RetryBaseDelay: time.Millisecond,
	})

	content, err := client.Complete(context.Background(), "p", "AI生成")
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCompleteExhaustsRetries(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Options{
		BaseURL:        server.URL,
		Model:          "m",
		RetryCount:     2,
		RetryBaseDelay: time.Millisecond,
	})

	_, err := client.Complete(context.Background(), "p", "AI生成")
	require.Error(t, err)

	// 总尝试次数 = 重试次数+1
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	var callErr *ModelCallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "AI生成", callErr.Label)
	assert.Contains(t, err.Error(), "模型调用失败[AI生成]")
}

func TestCompleteBackoffDelayDoubles(t *testing.T) {
	var mu sync.Mutex
	var arrivals []time.Time

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	baseDelay := 50 * time.Millisecond
	client := NewClient(Options{
		BaseURL:        server.URL,
		Model:          "m",
		RetryCount:     2,
		RetryBaseDelay: baseDelay,
	})

	_, err := client.Complete(context.Background(), "p", "AI生成")
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, arrivals, 3)

	// 第1次重试等base，第2次重试等base*2
	gap1 := arrivals[1].Sub(arrivals[0])
	gap2 := arrivals[2].Sub(arrivals[1])
	assert.GreaterOrEqual(t, gap1, baseDelay)
	assert.GreaterOrEqual(t, gap2, 2*baseDelay)
	assert.Greater(t, gap2, gap1)
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Model: "m"})

	content, err := client.Complete(context.Background(), "p", "AI生成")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestCompleteContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Options{
		BaseURL:        server.URL,
		Model:          "m",
		RetryCount:     5,
		RetryBaseDelay: time.Hour, // 退避期内必然命中取消
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := client.Complete(ctx, "p", "AI生成")
	require.Error(t, err)

	var callErr *ModelCallError
	require.True(t, errors.As(err, &callErr))
	assert.ErrorIs(t, callErr.Err, context.Canceled)
}

func TestCompleteNoSystemPrompt(t *testing.T) {
	var gotReq ChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(chatResponse("ok")))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Model: "m"})

	_, err := client.Complete(context.Background(), "只有用户消息", "AI生成")
	require.NoError(t, err)

	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
}
