package lib

import (
	"fmt"
	"log"
	"os"
	"path"

	awslib "fest/src/lib/aws"

	"github.com/yeqown/go-qrcode"
)

// NewQRImage renders payload to a PNG named after name, uploads it to the
// asset bucket and returns a presigned URL. Outside deployed environments the
// local file is exposed through the /share route instead.
func NewQRImage(payload string, name string) (string, error) {
	qrc, err := qrcode.New(payload)
	if err != nil {
		return "", err
	}
	tempdir := os.Getenv("TEMP_DIR")
	filepath := path.Join(tempdir, fmt.Sprintf("%s.jpeg", name))
	if err := qrc.Save(filepath); err != nil {
		log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		return "", err
	}
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		return fmt.Sprintf("/api/v1/share/%s", name), nil
	}
	url, err := awslib.S3UploadAsset(name, filepath)
	if err != nil {
		log.Printf("Error uploading asset to S3 bucket: %s\n", err.Error())
		return "", err
	}
	return *url, nil
}
