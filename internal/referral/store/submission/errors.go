package submission

import (
	"fmt"

	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

func errNotFound(offer domain.OfferID) error {
	return fmt.Errorf("find submission for offer %s: %w", offer, sentinel.ErrNotFound)
}
