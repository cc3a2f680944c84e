package cmn

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MustMarshal panics on encode failure; used only where the input is
// in-process data whose shape is already known to be encodable (mirrors
// dbdriver/bunt.go's cmn.MustMarshal in the teacher repo).
func MustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Unmarshal decodes into v, surfacing the error instead of panicking —
// used on data read back from the job-record store, which may be corrupt
// or written by an older/newer version of this tool.
func Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
