package ctp_test

import (
	"testing"

	"encoding/json"

	"github.com/ByteBard/CTP/pkg/ctp"
	jsoniter "github.com/json-iterator/go"
	"gotest.tools/assert"
)

type testDirectionType struct {
	Direction ctp.Direction `json:"direction"`
}

func directionGetMap() map[string]ctp.Direction {
	return map[string]ctp.Direction{
		"buy":  ctp.DirectionBuy,
		"sell": ctp.DirectionSell,
	}
}

func TestDirection_MarshalJSON(t *testing.T) {
	var err error
	var result []byte
	var obj testDirectionType

	for valStr, val := range directionGetMap() {
		jsonObj := testDirectionType{Direction: val}
		jsonStr := `{"direction":"` + valStr + `"}`

		result, err = json.Marshal(&jsonObj)
		assert.NilError(t, err)
		assert.Equal(t, string(result), jsonStr, "std marshal "+valStr)

		result, err = jsoniter.Marshal(&jsonObj)
		assert.NilError(t, err)
		assert.Equal(t, string(result), jsonStr, "jsoniter marshal "+valStr)

		err = json.Unmarshal([]byte(jsonStr), &obj)
		assert.NilError(t, err)
		assert.Equal(t, obj.Direction, val, "std unmarshal "+valStr)

		err = jsoniter.Unmarshal([]byte(jsonStr), &obj)
		assert.NilError(t, err)
		assert.Equal(t, obj.Direction, val, "jsoniter unmarshal "+valStr)
	}

	_, err = json.Marshal(&testDirectionType{Direction: ctp.Direction(100)})
	assert.ErrorContains(t, err, `invalid direction json conversion: 100`)

	err = json.Unmarshal([]byte(`{"direction":"stay"}`), &obj)
	assert.ErrorContains(t, err, `unsupported direction: "stay"`)
}

func TestDirection_String(t *testing.T) {
	for valStr, val := range directionGetMap() {
		assert.Equal(t, val.String(), valStr, "string "+valStr)
		resolve, err := ctp.DirectionStrToType(valStr)
		assert.NilError(t, err)
		assert.Equal(t, resolve, val, "from string "+valStr)
	}

	defer func() {
		if r := recover(); r != nil {
		} else {
			t.Fatal("not recoverd")
		}
	}()
	_ = ctp.Direction(100).String()
	t.Errorf("The code did not panic")
}

type testOffsetFlagType struct {
	Offset ctp.OffsetFlag `json:"offset"`
}

func offsetFlagGetMap() map[string]ctp.OffsetFlag {
	return map[string]ctp.OffsetFlag{
		"open":           ctp.OffsetOpen,
		"close":          ctp.OffsetClose,
		"forceClose":     ctp.OffsetForceClose,
		"closeToday":     ctp.OffsetCloseToday,
		"closeYesterday": ctp.OffsetCloseYesterday,
	}
}

func TestOffsetFlag_MarshalJSON(t *testing.T) {
	var err error
	var result []byte
	var obj testOffsetFlagType

	for valStr, val := range offsetFlagGetMap() {
		jsonObj := testOffsetFlagType{Offset: val}
		jsonStr := `{"offset":"` + valStr + `"}`

		result, err = json.Marshal(&jsonObj)
		assert.NilError(t, err)
		assert.Equal(t, string(result), jsonStr, "std marshal "+valStr)

		result, err = jsoniter.Marshal(&jsonObj)
		assert.NilError(t, err)
		assert.Equal(t, string(result), jsonStr, "jsoniter marshal "+valStr)

		err = json.Unmarshal([]byte(jsonStr), &obj)
		assert.NilError(t, err)
		assert.Equal(t, obj.Offset, val, "std unmarshal "+valStr)

		err = jsoniter.Unmarshal([]byte(jsonStr), &obj)
		assert.NilError(t, err)
		assert.Equal(t, obj.Offset, val, "jsoniter unmarshal "+valStr)
	}

	_, err = json.Marshal(&testOffsetFlagType{Offset: ctp.OffsetFlag(100)})
	assert.ErrorContains(t, err, `invalid offset flag json conversion: 100`)

	err = json.Unmarshal([]byte(`{"offset":"hold"}`), &obj)
	assert.ErrorContains(t, err, `unsupported offset flag: "hold"`)
}

func TestOffsetFlag_String(t *testing.T) {
	for valStr, val := range offsetFlagGetMap() {
		assert.Equal(t, val.String(), valStr, "string "+valStr)
		resolve, err := ctp.OffsetFlagStrToType(valStr)
		assert.NilError(t, err)
		assert.Equal(t, resolve, val, "from string "+valStr)
	}
}
