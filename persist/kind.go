package persist

import "fmt"

// Kind identifies the type of a stored value.
type Kind uint8

// Value kinds.
const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindStruct
	KindDict
	KindList
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindInt:     "int",
	KindFloat:   "float",
	KindBool:    "bool",
	KindString:  "string",
	KindStruct:  "struct",
	KindDict:    "dict",
	KindList:    "list",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// blob is the stored form of a fixed-size binary struct.
type blob []byte

func kindOf(v any) Kind {
	switch v.(type) {
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case bool:
		return KindBool
	case string:
		return KindString
	case blob:
		return KindStruct
	case *Dict:
		return KindDict
	case *List:
		return KindList
	}
	return KindInvalid
}
