package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_submissions01",
			"name": "submissions",
			"type": "base",
			"system": false,
			"fields": [
				{
					"name": "event_id",
					"type": "text",
					"required": true
				},
				{
					"name": "transaction_id",
					"type": "text",
					"required": true
				},
				{
					"name": "submitted_by",
					"type": "text",
					"required": false
				},
				{
					"name": "created",
					"type": "autodate",
					"onCreate": true,
					"onUpdate": false
				}
			],
			"indexes": [
				"CREATE UNIQUE INDEX idx_submissions_tx ON submissions (transaction_id)"
			],
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_submissions01")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
