package store

import (
	"context"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const textSize = 2147483647

func idColumn() *schema.Column {
	return &schema.Column{Name: "id", Type: field.TypeInt64, Increment: true}
}

func intColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt}
}

func refColumn(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt64, Nullable: nullable}
}

func stringColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString}
}

func textColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: textSize}
}

func timeColumn() *schema.Column {
	return &schema.Column{Name: "created_at", Type: field.TypeTime}
}

// foreignKey links table.column to ref.id.
func foreignKey(t *schema.Table, column string, ref *schema.Table, onDelete schema.ReferenceOption) {
	c, _ := t.Column(column)
	t.AddForeignKey(&schema.ForeignKey{
		Symbol:     t.Name + "_" + column,
		Columns:    []*schema.Column{c},
		RefTable:   ref,
		RefColumns: []*schema.Column{ref.PrimaryKey[0]},
		OnDelete:   onDelete,
	})
}

var (
	documentsTable = schema.NewTable("documents").
			AddPrimary(idColumn()).
			AddColumn(&schema.Column{Name: "uuid", Type: field.TypeString, Unique: true}).
			AddColumn(stringColumn("name")).
			AddColumn(textColumn("content")).
			AddColumn(timeColumn())

	quizSetsTable = schema.NewTable("quiz_sets").
			AddPrimary(idColumn()).
			AddColumn(refColumn("document_id", false)).
			AddColumn(timeColumn())

	quizzesTable = schema.NewTable("quizzes").
			AddPrimary(idColumn()).
			AddColumn(refColumn("quiz_set_id", false)).
			AddColumn(intColumn("number")).
			AddColumn(stringColumn("type")).
			AddColumn(textColumn("question")).
			AddColumn(textColumn("options")).
			AddColumn(textColumn("correct_answer")).
			AddColumn(textColumn("explanation")).
			AddColumn(timeColumn()).
			AddIndex("quizzes_quiz_set_id_number", true, []string{"quiz_set_id", "number"})

	// retry_set_id carries no foreign key: retry sets reference attempts,
	// and the cycle would block table creation order.
	attemptsTable = schema.NewTable("attempts").
			AddPrimary(idColumn()).
			AddColumn(refColumn("quiz_set_id", true)).
			AddColumn(refColumn("retry_set_id", true)).
			AddColumn(intColumn("score")).
			AddColumn(intColumn("total")).
			AddColumn(intColumn("correct")).
			AddColumn(timeColumn()).
			AddIndex("attempts_retry_set_id", false, []string{"retry_set_id"})

	quizResultsTable = schema.NewTable("quiz_results").
				AddPrimary(idColumn()).
				AddColumn(refColumn("attempt_id", false)).
				AddColumn(refColumn("quiz_id", false)).
				AddColumn(textColumn("user_answer")).
				AddColumn(&schema.Column{Name: "is_correct", Type: field.TypeBool}).
				AddColumn(textColumn("feedback")).
				AddColumn(timeColumn()).
				AddIndex("quiz_results_quiz_id", false, []string{"quiz_id"}).
				AddIndex("quiz_results_is_correct", false, []string{"is_correct"})

	retrySetsTable = schema.NewTable("retry_quiz_sets").
			AddPrimary(idColumn()).
			AddColumn(refColumn("original_attempt_id", false)).
			AddColumn(refColumn("quiz_set_id", false)).
			AddColumn(timeColumn())

	retryItemsTable = schema.NewTable("retry_quiz_items").
			AddPrimary(idColumn()).
			AddColumn(refColumn("retry_set_id", false)).
			AddColumn(refColumn("quiz_id", false)).
			AddColumn(refColumn("original_quiz_id", false)).
			AddColumn(intColumn("position"))

	llmEventsTable = schema.NewTable("llm_request_events").
			AddPrimary(idColumn()).
			AddColumn(stringColumn("provider")).
			AddColumn(stringColumn("model")).
			AddColumn(stringColumn("purpose")).
			AddColumn(intColumn("input_tokens")).
			AddColumn(intColumn("output_tokens")).
			AddColumn(&schema.Column{Name: "latency_ms", Type: field.TypeInt64}).
			AddColumn(&schema.Column{Name: "success", Type: field.TypeBool}).
			AddColumn(textColumn("error_message")).
			AddColumn(textColumn("request_body")).
			AddColumn(textColumn("response_body")).
			AddColumn(timeColumn()).
			AddIndex("llm_request_events_purpose", false, []string{"purpose"})

	tables = []*schema.Table{
		documentsTable,
		quizSetsTable,
		quizzesTable,
		attemptsTable,
		quizResultsTable,
		retrySetsTable,
		retryItemsTable,
		llmEventsTable,
	}
)

func init() {
	foreignKey(quizSetsTable, "document_id", documentsTable, schema.Cascade)
	foreignKey(quizzesTable, "quiz_set_id", quizSetsTable, schema.Cascade)
	foreignKey(attemptsTable, "quiz_set_id", quizSetsTable, schema.Cascade)
	foreignKey(quizResultsTable, "attempt_id", attemptsTable, schema.Cascade)
	foreignKey(quizResultsTable, "quiz_id", quizzesTable, schema.Cascade)
	foreignKey(retrySetsTable, "original_attempt_id", attemptsTable, schema.Cascade)
	foreignKey(retrySetsTable, "quiz_set_id", quizSetsTable, schema.Cascade)
	foreignKey(retryItemsTable, "retry_set_id", retrySetsTable, schema.Cascade)
	foreignKey(retryItemsTable, "quiz_id", quizzesTable, schema.Cascade)
	foreignKey(retryItemsTable, "original_quiz_id", quizzesTable, schema.Cascade)
}

// migrate creates or upgrades every table with ent's schema migrator.
func (s *Store) migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(s.drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}
