package app

import (
	"github.com/Abdurahmanit/GroupProject/classifieds-service/internal/usecase"
)

// App bundles the wired use cases behind one handle. The request transport
// (gRPC behind the api-gateway, like the sibling services) registers against
// it when that surface is added; the scheduler consumes the lifecycle and
// alert use cases directly.
type App struct {
	Categories    *usecase.CategoryTreeUsecase
	Ledger        *usecase.AggregateLedger
	Lifecycle     *usecase.ListingLifecycleUsecase
	Conversations *usecase.ConversationUsecase
	Engagement    *usecase.EngagementUsecase
	Ratings       *usecase.RatingUsecase
	Alerts        *usecase.AlertMatcherUsecase
}
