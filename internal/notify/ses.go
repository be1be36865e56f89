package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESOptions configures SESMailer. Empty credentials fall back to the
// default AWS chain.
type SESOptions struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	From            string
	FromName        string
}

// SESMailer sends through the Amazon SES v2 API.
type SESMailer struct {
	client sesAPI
	from   string
}

// NewSESMailer loads AWS config and builds the client.
func NewSESMailer(ctx context.Context, o SESOptions) (*SESMailer, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if o.Region != "" {
		opts = append(opts, awsconfig.WithRegion(o.Region))
	}
	if o.AccessKeyID != "" && o.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("notify: load aws config: %w", err)
	}
	return newSESMailer(sesv2.NewFromConfig(cfg), o.From, o.FromName), nil
}

func newSESMailer(client sesAPI, from, fromName string) *SESMailer {
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", headerSafe(fromName), from)
	}
	return &SESMailer{client: client, from: from}
}

// Send implements Mailer.
func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}
	if _, err := m.client.SendEmail(ctx, in); err != nil {
		return fmt.Errorf("notify: ses send: %w", err)
	}
	return nil
}
