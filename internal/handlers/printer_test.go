package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"receipt_relay/internal/models"
	"receipt_relay/internal/service"
)

func TestConnectPrinter_Success(t *testing.T) {
	conn := &mockConnectionManager{
		connectState: models.ConnectionState{IsConnected: true, DeviceName: "Kitchen Thermal"},
	}
	s := &service.Service{
		Authorization:     &mockAuth{parseID: 1},
		ConnectionManager: conn,
	}

	w := doRequest(t, s, http.MethodPost, "/api/v1/printer/connect", "tok")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if conn.connectCalls != 1 {
		t.Fatalf("Connect called %d times", conn.connectCalls)
	}
	var st models.ConnectionState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.IsConnected || st.DeviceName != "Kitchen Thermal" {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestConnectPrinter_DriverFailure(t *testing.T) {
	conn := &mockConnectionManager{connectErr: errors.New("dial tcp: timeout")}
	s := &service.Service{
		Authorization:     &mockAuth{parseID: 1},
		ConnectionManager: conn,
	}

	w := doRequest(t, s, http.MethodPost, "/api/v1/printer/connect", "tok")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
}

func TestDisconnectPrinter(t *testing.T) {
	conn := &mockConnectionManager{}
	s := &service.Service{
		Authorization:     &mockAuth{parseID: 1},
		ConnectionManager: conn,
	}

	w := doRequest(t, s, http.MethodPost, "/api/v1/printer/disconnect", "tok")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if conn.disconnectCalls != 1 {
		t.Fatalf("Disconnect called %d times", conn.disconnectCalls)
	}
}

func TestDisconnectPrinter_Failure(t *testing.T) {
	conn := &mockConnectionManager{disconnectErr: errors.New("boom")}
	s := &service.Service{
		Authorization:     &mockAuth{parseID: 1},
		ConnectionManager: conn,
	}

	w := doRequest(t, s, http.MethodPost, "/api/v1/printer/disconnect", "tok")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestGetPrinterStatus(t *testing.T) {
	conn := &mockConnectionManager{
		state: models.ConnectionState{IsConnected: true, DeviceName: "Kitchen Thermal"},
	}
	s := &service.Service{
		Authorization:     &mockAuth{parseID: 1},
		ConnectionManager: conn,
	}

	w := doRequest(t, s, http.MethodGet, "/api/v1/printer/status", "tok")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var st models.ConnectionState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.IsConnected || st.DeviceName != "Kitchen Thermal" {
		t.Fatalf("unexpected state: %+v", st)
	}
}
