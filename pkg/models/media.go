package models

// MediaResponse is returned by POST /{phone_number_id}/media
type MediaResponse struct {
	ID string `json:"id"`
}

// UploadSession is returned when a resumable upload is opened
type UploadSession struct {
	ID string `json:"id"` // "upload:<session>"
}

// UploadHandle is returned once the file bytes are accepted
type UploadHandle struct {
	H string `json:"h"`
}
