package model

import (
	"fmt"
	"reflect"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/razao/internal/dates"
)

var (
	validate = validator.New()

	decimalType = reflect.TypeOf(decimal.Decimal{})
	dateType    = reflect.TypeOf(civil.Date{})
	datePtrType = reflect.TypeOf(&civil.Date{})
	kindType    = reflect.TypeOf(MovementKind(""))
)

// checker is implemented by records with constraints the struct tags cannot express.
type checker interface {
	check() error
}

func errInvalidDate(recordID, column string) error {
	return fmt.Errorf("record %s: invalid %s", recordID, column)
}

// DecodeAccount converts a storage row to an Account.
func DecodeAccount(row map[string]any) (Account, error) {
	var a Account
	err := decodeRow(row, &a)
	return a, err
}

// DecodeTitleType converts a storage row to a TitleType.
func DecodeTitleType(row map[string]any) (TitleType, error) {
	var tt TitleType
	err := decodeRow(row, &tt)
	return tt, err
}

// DecodeBankAccount converts a storage row to a BankAccount.
func DecodeBankAccount(row map[string]any) (BankAccount, error) {
	var b BankAccount
	err := decodeRow(row, &b)
	return b, err
}

// DecodeMovement converts a storage row to a Movement, normalizing its kind tag.
func DecodeMovement(row map[string]any) (Movement, error) {
	var m Movement
	err := decodeRow(row, &m)
	return m, err
}

// DecodeInstallment converts a storage row to an Installment.
func DecodeInstallment(row map[string]any) (Installment, error) {
	var i Installment
	err := decodeRow(row, &i)
	return i, err
}

// DecodeManualRow converts a storage row to a ManualRow.
func DecodeManualRow(row map[string]any) (ManualRow, error) {
	var r ManualRow
	err := decodeRow(row, &r)
	return r, err
}

// EncodeAccount converts an Account to the storage row shape.
func EncodeAccount(a Account) map[string]any {
	return map[string]any{
		"id":         a.ID,
		"empresa_id": a.CompanyID,
		"codigo":     a.Code,
		"descricao":  a.Description,
		"tipo":       string(a.Type),
		"categoria":  string(a.Category),
		"dre":        a.IncomeStatement,
		"status":     string(a.Status),
	}
}

// EncodeManualRow converts a ManualRow to the storage row shape.
func EncodeManualRow(r ManualRow) map[string]any {
	row := map[string]any{
		"empresa_id":       r.CompanyID,
		"data":             dates.FormatISO(r.Date),
		"historico":        r.Narrative,
		"conta_debito_id":  r.DebitAccountID,
		"conta_credito_id": r.CreditAccountID,
		"valor":            r.Amount.String(),
		"tipo":             string(r.Kind),
	}
	if r.ID != "" {
		row["id"] = r.ID
	}
	return row
}

func decodeRow(row map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			decimalHook,
			kindHook,
			dateHook, // last: may turn the input into nil
		),
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(row); err != nil {
		return fmt.Errorf("decoding row: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validating row: %w", err)
	}
	if c, ok := out.(checker); ok {
		if err := c.check(); err != nil {
			return err
		}
	}
	return nil
}

func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		if v == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(v)
	case []byte:
		if len(v) == 0 {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(string(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	}
	return nil, fmt.Errorf("cannot convert %T to decimal", data)
}

func dateHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case datePtrType:
		// Empty optional dates decode to nil.
		if s, ok := data.(string); ok && s == "" {
			return nil, nil
		}
		return data, nil
	case dateType:
	default:
		return data, nil
	}
	switch v := data.(type) {
	case civil.Date:
		return v, nil
	case time.Time:
		return dates.FromTime(v), nil
	case string:
		if v == "" {
			return civil.Date{}, nil
		}
		return dates.Parse(v)
	case []byte:
		return dates.Parse(string(v))
	}
	return nil, fmt.Errorf("cannot convert %T to date", data)
}

func kindHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != kindType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return ParseMovementKind(v)
	case []byte:
		return ParseMovementKind(string(v))
	}
	return data, nil
}
