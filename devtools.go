package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Минимальный клиент DevTools-протокола: readiness probe нужен
// ровно один Runtime.evaluate на первой открытой странице.

var devtoolsTimeout = 3 * time.Second

type devtoolsTarget struct {
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

type devtoolsRequest struct {
	ID     int                    `json:"id"`
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params,omitempty"`
}

type devtoolsResponse struct {
	ID     int `json:"id"`
	Result struct {
		Result struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		} `json:"result"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// firstPageTarget — найти websocket-адрес первой страницы браузера
func firstPageTarget(baseURL string) (string, error) {
	client := &http.Client{Timeout: devtoolsTimeout}

	resp, err := client.Get(baseURL + "/json/list")
	if err != nil {
		return "", fmt.Errorf("devtools endpoint not reachable: %w", err)
	}
	defer resp.Body.Close()

	var targets []devtoolsTarget
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return "", fmt.Errorf("failed to decode devtools target list: %w", err)
	}

	for _, t := range targets {
		if t.Type == "page" && t.WebSocketDebuggerURL != "" {
			return t.WebSocketDebuggerURL, nil
		}
	}

	return "", fmt.Errorf("no page target available yet")
}

// evaluateInPage — выполнить выражение на первой странице и
// разобрать возвращённое значение в out
func evaluateInPage(baseURL, expression string, out interface{}) error {
	wsURL, err := firstPageTarget(baseURL)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: devtoolsTimeout}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to devtools: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(devtoolsTimeout)
	conn.SetWriteDeadline(deadline)
	conn.SetReadDeadline(deadline)

	req := devtoolsRequest{
		ID:     1,
		Method: "Runtime.evaluate",
		Params: map[string]interface{}{
			"expression":    expression,
			"returnByValue": true,
		},
	}

	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("failed to send evaluate request: %w", err)
	}

	// Браузер шлёт и события — читаем до ответа на наш запрос
	for {
		var resp devtoolsResponse
		if err := conn.ReadJSON(&resp); err != nil {
			return fmt.Errorf("failed to read devtools response: %w", err)
		}

		if resp.ID != req.ID {
			continue
		}

		if resp.Error != nil {
			return fmt.Errorf("devtools error: %s", resp.Error.Message)
		}

		if out == nil || resp.Result.Result.Value == nil {
			return nil
		}
		return json.Unmarshal(resp.Result.Result.Value, out)
	}
}
