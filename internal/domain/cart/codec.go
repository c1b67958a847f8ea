package cart

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// EncodeItems serializes items as the stored cart document:
// [{"productId":1,"size":"M","quantity":2}, ...].
func EncodeItems(items []Item) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Int64(it.ProductID)
		e.FieldStart("size")
		e.Str(it.Size)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// DecodeItems parses a stored cart document. It accepts the legacy "id" key
// for the product id and numbers encoded as strings, both of which appear in
// documents written by the previous storefront. A null or empty document is
// an empty cart.
func DecodeItems(data []byte) ([]Item, error) {
	if len(data) == 0 {
		return nil, nil
	}

	d := jx.DecodeBytes(data)
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var items []Item
	err := d.Arr(func(d *jx.Decoder) error {
		var it Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "productId", "id":
				v, err := decodeInt(d)
				if err != nil {
					return errors.Wrapf(err, "decode %s", key)
				}
				it.ProductID = v
			case "size":
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "decode size")
				}
				it.Size = v
			case "quantity":
				v, err := decodeInt(d)
				if err != nil {
					return errors.Wrap(err, "decode quantity")
				}
				it.Quantity = int(v)
			default:
				return d.Skip()
			}
			return nil
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cart document")
	}
	return items, nil
}

func decodeInt(d *jx.Decoder) (int64, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		return strconv.ParseInt(s, 10, 64)
	case jx.Number:
		return d.Int64()
	default:
		return 0, errors.Errorf("unexpected %s", d.Next())
	}
}
