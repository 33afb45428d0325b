// Package zrqueue holds the durable task queue between the submitter and
// the upload worker. Tasks are published durably and delivered at least
// once; the consumer acknowledges each task after processing it, whether
// the upload succeeded or not.
package zrqueue

// UploadTask is the unit of work describing one pending transfer. It carries
// everything the worker needs so it never has to consult any system other
// than the transfer store and Zenodo itself.
type UploadTask struct {
	Username       string `json:"username"`
	FilePath       string `json:"file_path"`
	Filename       string `json:"filename"`
	ZenodoToken    string `json:"zenodo_token"`
	DepositionID   int    `json:"deposition_id"`
	DepositionName string `json:"deposition_name"`
	TransferID     int    `json:"transfer_id"`
}
