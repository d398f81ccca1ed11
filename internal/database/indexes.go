package database

import (
	"context"
	"fmt"
)

// secondaryIndexes are the data-table indexes dropped around bulk loads and
// recreated afterwards. Primary keys are never touched. The DDL must stay in
// step with the migration files.
var secondaryIndexes = []struct {
	name   string
	create string
}{
	{"idx_addr_obj_objectguid", `CREATE INDEX IF NOT EXISTS "idx_addr_obj_objectguid" ON "addr_obj" ("objectguid")`},
	{"idx_house_objectguid", `CREATE INDEX IF NOT EXISTS "idx_house_objectguid" ON "house" ("objectguid")`},
	{"idx_addr_obj_param_object", `CREATE INDEX IF NOT EXISTS "idx_addr_obj_param_object" ON "addr_obj_param" ("objectid", "typeid")`},
	{"idx_house_param_object", `CREATE INDEX IF NOT EXISTS "idx_house_param_object" ON "house_param" ("objectid", "typeid")`},
	{"idx_adm_hierarchy_objectid", `CREATE INDEX IF NOT EXISTS "idx_adm_hierarchy_objectid" ON "adm_hierarchy" ("objectid")`},
	{"idx_adm_hierarchy_parent", `CREATE INDEX IF NOT EXISTS "idx_adm_hierarchy_parent" ON "adm_hierarchy" ("parentobjid")`},
	{"idx_mun_hierarchy_objectid", `CREATE INDEX IF NOT EXISTS "idx_mun_hierarchy_objectid" ON "mun_hierarchy" ("objectid")`},
	{"idx_mun_hierarchy_parent", `CREATE INDEX IF NOT EXISTS "idx_mun_hierarchy_parent" ON "mun_hierarchy" ("parentobjid")`},
}

// DropIndexes removes the secondary data-table indexes ahead of a bulk load.
func (d *Database) DropIndexes(ctx context.Context) error {
	for _, idx := range secondaryIndexes {
		if err := d.exec(ctx, `DROP INDEX IF EXISTS `+quoteIdent(idx.name)); err != nil {
			return fmt.Errorf("dropping index %s: %w", idx.name, err)
		}
	}
	d.log.Info("secondary indexes dropped", "count", len(secondaryIndexes))
	return nil
}

// RestoreIndexes recreates whatever DropIndexes removed.
func (d *Database) RestoreIndexes(ctx context.Context) error {
	for _, idx := range secondaryIndexes {
		if err := d.exec(ctx, idx.create); err != nil {
			return fmt.Errorf("restoring index %s: %w", idx.name, err)
		}
	}
	d.log.Info("secondary indexes restored", "count", len(secondaryIndexes))
	return nil
}
