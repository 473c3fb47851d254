package handler

// UpdateFieldsRequest merges one or more draft field values. Field names use
// the wire names the SPA submits (firstName, surname, phone, ...).
type UpdateFieldsRequest struct {
	Fields map[string]string `json:"fields" validate:"required,min=1,dive,keys,notblank,endkeys"`
}
