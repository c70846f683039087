package ctp_test

import (
	"testing"

	"encoding/json"

	"github.com/ByteBard/CTP/pkg/ctp"
	jsoniter "github.com/json-iterator/go"
	"gotest.tools/assert"
)

type testOrderStatusType struct {
	Status ctp.OrderStatus `json:"status"`
}

func orderStatusGetMap() map[string]ctp.OrderStatus {
	return map[string]ctp.OrderStatus{
		"pendingSubmit":   ctp.OrderStatusPendingSubmit,
		"accepted":        ctp.OrderStatusAccepted,
		"partiallyTraded": ctp.OrderStatusPartiallyTraded,
		"allTraded":       ctp.OrderStatusAllTraded,
		"canceled":        ctp.OrderStatusCanceled,
		"rejected":        ctp.OrderStatusRejected,
		"notTouched":      ctp.OrderStatusNotTouched,
		"touched":         ctp.OrderStatusTouched,
	}
}

func TestOrderStatus_MarshalJSON(t *testing.T) {
	var err error
	var result []byte
	var obj testOrderStatusType

	for valStr, val := range orderStatusGetMap() {
		jsonObj := testOrderStatusType{Status: val}
		jsonStr := `{"status":"` + valStr + `"}`

		result, err = json.Marshal(&jsonObj)
		assert.NilError(t, err)
		assert.Equal(t, string(result), jsonStr, "std marshal "+valStr)

		result, err = jsoniter.Marshal(&jsonObj)
		assert.NilError(t, err)
		assert.Equal(t, string(result), jsonStr, "jsoniter marshal "+valStr)

		err = json.Unmarshal([]byte(jsonStr), &obj)
		assert.NilError(t, err)
		assert.Equal(t, obj.Status, val, "std unmarshal "+valStr)

		err = jsoniter.Unmarshal([]byte(jsonStr), &obj)
		assert.NilError(t, err)
		assert.Equal(t, obj.Status, val, "jsoniter unmarshal "+valStr)
	}

	_, err = json.Marshal(&testOrderStatusType{Status: ctp.OrderStatus(100)})
	assert.ErrorContains(t, err, `invalid order status json conversion: 100`)

	_, err = jsoniter.Marshal(&testOrderStatusType{Status: ctp.OrderStatus(100)})
	assert.ErrorContains(t, err, `invalid order status json conversion: 100`)

	err = json.Unmarshal([]byte(`{"status":"newStatus"}`), &obj)
	assert.ErrorContains(t, err, `unsupported order status: "newStatus"`)

	err = jsoniter.Unmarshal([]byte(`{"status":"newStatus"}`), &obj)
	assert.ErrorContains(t, err, `unsupported order status: "newStatus"`)
}

func TestOrderStatus_String(t *testing.T) {

	for valStr, val := range orderStatusGetMap() {
		assert.Equal(t, val.String(), valStr, "string "+valStr)
		resolve, err := ctp.OrderStatusStrToType(valStr)
		assert.NilError(t, err)
		assert.Equal(t, resolve, val, "from string "+valStr)
	}

	defer func() {
		if r := recover(); r != nil {
		} else {
			t.Fatal("not recoverd")
		}
	}()
	_ = ctp.OrderStatus(100).String()
	t.Errorf("The code did not panic")
}

func TestOrderStatus_StrToOrderStatusError(t *testing.T) {
	_, err := ctp.OrderStatusStrToType("newStatus")
	assert.Error(t, err, `unsupported order status: newStatus`)
}
