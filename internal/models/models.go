package models

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Team{}, &Membership{}, &Invite{}, &Profile{},
		&Item{}, &Project{}, &ProjectUpdate{},
		&PublicShare{}, &ShareAccessLog{}, &Notification{},
	}
}
