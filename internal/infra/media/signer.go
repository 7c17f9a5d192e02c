package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"fibra-quiz-service/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// QuestionLoader is the wrapped source of questions.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, subject domain.Subject) ([]domain.Question, error)
}

type presigner interface {
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, params url.Values) (*url.URL, error)
}

// Signer rewrites object-key media references (audio, images) into presigned URLs.
// Absolute URLs and site-relative paths ("/man.svg") are left as they are.
type Signer struct {
	client presigner
	bucket string
	expiry time.Duration
}

// NewMinioSigner connects to an S3-compatible endpoint.
func NewMinioSigner(endpoint, accessKey, secretKey, bucket string, useSSL bool, expiry time.Duration) (*Signer, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Signer{client: client, bucket: bucket, expiry: expiry}, nil
}

// Sign resolves one reference.
func (s *Signer) Sign(ctx context.Context, ref string) (string, error) {
	if !isObjectKey(ref) {
		return ref, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, ref, s.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", ref, err)
	}
	return u.String(), nil
}

func isObjectKey(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "/") {
		return false
	}
	return !strings.Contains(ref, "://")
}

// SigningLoader signs media references of every question it loads.
type SigningLoader struct {
	next   QuestionLoader
	signer *Signer
}

func NewSigningLoader(next QuestionLoader, signer *Signer) *SigningLoader {
	return &SigningLoader{next: next, signer: signer}
}

func (l *SigningLoader) LoadQuestions(ctx context.Context, subject domain.Subject) ([]domain.Question, error) {
	questions, err := l.next.LoadQuestions(ctx, subject)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		q := &questions[i]
		if q.AudioSrc, err = l.signer.Sign(ctx, q.AudioSrc); err != nil {
			return nil, err
		}
		for j := range q.Options {
			opt := &q.Options[j]
			if opt.AudioSrc, err = l.signer.Sign(ctx, opt.AudioSrc); err != nil {
				return nil, err
			}
			if opt.ImageSrc, err = l.signer.Sign(ctx, opt.ImageSrc); err != nil {
				return nil, err
			}
		}
	}
	return questions, nil
}
