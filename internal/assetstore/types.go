package assetstore

// AssetRecord describes the state of one uploaded binary in the object store.
// Created by Upload, deleted by Destroy during compensation, otherwise
// immutable once verified.
type AssetRecord struct {
	IdempotencyKey string // logical identity; the object key derives from it
	Bucket         string
	ObjectKey      string
	Location       string // s3://bucket/key form for responses and logs
	ContentType    string
	Verified       bool
}
