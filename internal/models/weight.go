package models

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Weight decodes a declared weight whether legacy documents stored it as a
// number or a free-text string. Non-numeric and missing values decode to 0 so
// one bad document cannot sink a whole checkout.
type Weight float64

func (w *Weight) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null:
		*w = 0
		return nil
	case bsontype.Double:
		var value float64
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*w = Weight(value)
		return nil
	case bsontype.Int32:
		var value int32
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*w = Weight(value)
		return nil
	case bsontype.Int64:
		var value int64
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*w = Weight(value)
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			*w = 0
			return nil
		}
		*w = Weight(parsed)
		return nil
	default:
		*w = 0
		return nil
	}
}

func (w Weight) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(float64(w))
}

func (w Weight) Kg() float64 {
	return float64(w)
}
