package codec

import "github.com/go-faster/jx"

// EncodeError writes the error document shared by every endpoint.
func EncodeError(e *jx.Encoder, code int, kind, message string) {
	e.ObjStart()
	e.FieldStart("code")
	e.Int(code)
	e.FieldStart("kind")
	e.Str(kind)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
}
