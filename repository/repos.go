package repository

import (
	"github.com/relayprotocol/vault-claimer/db"
	"github.com/relayprotocol/vault-claimer/entity"
	"github.com/relayprotocol/vault-claimer/repository/postgres"
)

type Repo struct {
	Origins           entity.OriginsRepo
	ProcessedMessages entity.ProcessedMessagesRepo
	Claims            entity.ClaimsRepo
	Submissions       entity.SubmissionsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		Origins:           postgres.NewOriginsRepo("origins", db),
		ProcessedMessages: postgres.NewProcessedMessagesRepo("processed_messages", db),
		Claims:            postgres.NewClaimsRepo("claims", db),
		Submissions:       postgres.NewSubmissionsRepo("submissions", db),
	}
}
