package migrations

func init() {
	Migrations.MustRegister(sqlMigration("create_quizzes.up.sql"), sqlMigration("create_quizzes.down.sql"))
}
