package migrations

func init() {
	Migrations.MustRegister(sqlMigration("create_game_results.up.sql"), sqlMigration("create_game_results.down.sql"))
}
