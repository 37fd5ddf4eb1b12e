package aws

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Proof uploads are capped and restricted to the formats the organizer review
// screen can render.
const MaxProofSizeBytes = 5 << 20

var AllowedProofTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

func GetS3Client() *s3.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Printf("Could not load default config: %s\n", err.Error())
		return nil
	}
	svc := s3.NewFromConfig(cfg)
	return svc
}

func S3UploadAsset(name string, f string) (*string, error) {
	assetsBucket := os.Getenv("S3_ASSETS_BUCKET")
	file, err := os.Open(f)
	if err != nil {
		log.Printf("Could not open file to upload: %s\n", err.Error())
		return nil, err
	}
	defer file.Close()
	client := GetS3Client()
	_, err = client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(assetsBucket),
		Key:         aws.String(name),
		Body:        file,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		log.Printf("Could not put object to S3 bucket: %s\n", err.Error())
		return nil, err
	}
	return presign(client, assetsBucket, name)
}

// S3UploadProof stores a payment-proof blob and returns a presigned URL. Size
// and content type were validated by the caller against MaxProofSizeBytes and
// AllowedProofTypes.
func S3UploadProof(name string, body io.Reader, contentType string) (*string, error) {
	proofsBucket := os.Getenv("S3_PROOFS_BUCKET")
	client := GetS3Client()
	_, err := client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(proofsBucket),
		Key:         aws.String(name),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("Could not put object to S3 bucket: %s\n", err.Error())
		return nil, err
	}
	return presign(client, proofsBucket, name)
}

// S3PresignAsset returns a fresh presigned URL for an asset uploaded earlier.
func S3PresignAsset(name string) (*string, error) {
	assetsBucket := os.Getenv("S3_ASSETS_BUCKET")
	return presign(GetS3Client(), assetsBucket, name)
}

func presign(client *s3.Client, bucket, name string) (*string, error) {
	pre := s3.NewPresignClient(client)
	r, err := pre.PresignGetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(name),
	}, func(po *s3.PresignOptions) {
		po.Expires = time.Duration(3600 * time.Second)
	})
	if err != nil {
		log.Printf("Could not generate presigned URL for object [%s]: %s\n", name, err.Error())
		return nil, err
	}
	return &r.URL, nil
}

func ProofObjectName(orderRef string) string {
	return fmt.Sprintf("proof_%s_%d", orderRef, time.Now().UnixMilli())
}
