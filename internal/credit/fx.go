package credit

import (
	"github.com/perkhub/perkstore/internal/credit/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("credit.ledger",
	fx.Provide(repository.NewLedger),
)
