package services

import (
	"context"

	"github.com/dmitrijs2005/claimkeeper/internal/server/models"
	"github.com/dmitrijs2005/claimkeeper/internal/server/repositories/attachments"
)

// URLResolver turns a blob reference into an externally fetchable URL.
type URLResolver interface {
	URL(ref string) string
}

func attachmentView(urls URLResolver, a *models.Attachment) models.AttachmentView {
	return models.AttachmentView{
		Name: a.FileName,
		URL:  urls.URL(a.StoredName),
		Size: a.Size,
	}
}

// withAttachments loads the claim's attachments and resolves their URLs.
func withAttachments(ctx context.Context, repo attachments.Repository, urls URLResolver, c *models.Claim) (*models.ClaimWithAttachments, error) {
	atts, err := repo.ListByClaim(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	views := make([]models.AttachmentView, 0, len(atts))
	for _, a := range atts {
		views = append(views, attachmentView(urls, a))
	}
	return &models.ClaimWithAttachments{Claim: *c, Attachments: views}, nil
}
