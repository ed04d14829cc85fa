package models

import "encoding/json"

// ActivityLog is an immutable audit record. old_values/new_values are a
// closed union of historical payload shapes; LogValues keeps the raw JSON
// and exposes only the variant that actually matched.
type ActivityLog struct {
	ID        int         `json:"id"`
	AdminID   int         `json:"admin_id"`
	Action    string      `json:"action"`
	ModelType string      `json:"model_type"`
	ModelID   int         `json:"model_id"`
	OldValues *LogValues  `json:"old_values"`
	NewValues *LogValues  `json:"new_values"`
	IPAddress string      `json:"ip_address"`
	UserAgent string      `json:"user_agent"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
	Admin     *AdminActor `json:"admin"`
}

// AdminActor identifies the admin who performed a logged action.
type AdminActor struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LogValues kinds.
const (
	LogValuesUnknown    = ""
	LogValuesLogin      = "login"
	LogValuesFileUpload = "file_upload"
	LogValuesFileRecord = "file_record"
)

// LoginValues records a login timestamp change.
type LoginValues struct {
	LastLoginAt string `json:"last_login_at"`
}

// FileUploadValues records only the uploaded file's name.
type FileUploadValues struct {
	FileName string `json:"file_name"`
}

// LogValues is the tagged union stored in old_values/new_values. Callers
// check Kind before reading a variant; fields of the other variants are nil.
type LogValues struct {
	Kind       string
	Login      *LoginValues
	FileUpload *FileUploadValues
	FileRecord *UserFile
	Raw        json.RawMessage
}

func (v *LogValues) UnmarshalJSON(data []byte) error {
	v.Raw = append(v.Raw[:0], data...)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		// Not an object; keep the raw payload with an unknown kind.
		v.Kind = LogValuesUnknown
		return nil
	}

	switch {
	case hasKey(probe, "last_login_at"):
		v.Login = &LoginValues{}
		if err := json.Unmarshal(data, v.Login); err != nil {
			return err
		}
		v.Kind = LogValuesLogin
	case hasKey(probe, "file_name") && hasKey(probe, "id"):
		v.FileRecord = &UserFile{}
		if err := json.Unmarshal(data, v.FileRecord); err != nil {
			return err
		}
		v.Kind = LogValuesFileRecord
	case hasKey(probe, "file_name"):
		v.FileUpload = &FileUploadValues{}
		if err := json.Unmarshal(data, v.FileUpload); err != nil {
			return err
		}
		v.Kind = LogValuesFileUpload
	default:
		v.Kind = LogValuesUnknown
	}
	return nil
}

func (v LogValues) MarshalJSON() ([]byte, error) {
	if len(v.Raw) > 0 {
		return v.Raw, nil
	}
	switch v.Kind {
	case LogValuesLogin:
		return json.Marshal(v.Login)
	case LogValuesFileUpload:
		return json.Marshal(v.FileUpload)
	case LogValuesFileRecord:
		return json.Marshal(v.FileRecord)
	}
	return []byte("null"), nil
}

func hasKey(m map[string]json.RawMessage, key string) bool {
	_, ok := m[key]
	return ok
}
