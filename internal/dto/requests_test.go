package dto

import (
	"encoding/json"
	"testing"
)

// Phone in PATCH /user is tri-state: absent keeps the number, null
// clears it, a value starts verification.
func TestNullableString_Unmarshal(t *testing.T) {
	var req UpdateUserRequest
	if err := json.Unmarshal([]byte(`{"first_name":"Dmitry"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Phone.Set {
		t.Fatalf("absent field must leave Set=false")
	}

	req = UpdateUserRequest{}
	if err := json.Unmarshal([]byte(`{"phone":null}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.Phone.Set || req.Phone.Value != nil {
		t.Fatalf("explicit null must give Set=true, Value=nil")
	}

	req = UpdateUserRequest{}
	if err := json.Unmarshal([]byte(`{"phone":"9251234567"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.Phone.Set || req.Phone.Value == nil || *req.Phone.Value != "9251234567" {
		t.Fatalf("value must give Set=true and the string, got %+v", req.Phone)
	}
}

func TestNullableString_InvalidType(t *testing.T) {
	var req UpdateUserRequest
	if err := json.Unmarshal([]byte(`{"phone":42}`), &req); err == nil {
		t.Fatalf("non-string phone must fail to unmarshal")
	}
}
