package store

import "github.com/script-select-api/internal/models"

// SeedScripts returns the built-in fallback catalog used until the external
// sources are configured and reachable
func SeedScripts() []models.Script {
	return []models.Script{
		{
			ID:       "CUT-001",
			Category: "剪髮",
			Title:    "方形層次剪裁",
			Stages: [4]models.Stage{
				{Name: models.StageNames[0], Points: "介紹臉型與方形層次的關係", Dialogue: "很多人以為短髮不挑臉型，其實關鍵在層次。"},
				{Name: models.StageNames[1], Points: "示範分區與提拉角度", Dialogue: "提拉九十度，長度就會在這裡斷開。"},
				{Name: models.StageNames[2], Points: "常見失敗案例對比", Dialogue: "如果角度錯了，就會變成這樣的蘑菇頭。"},
				{Name: models.StageNames[3], Points: "完成造型與整理建議", Dialogue: "回家只要吹乾抓一下，就是這個形。"},
			},
		},
	}
}

// SeedUsers returns the built-in fallback roster
func SeedUsers() []models.User {
	return []models.User{
		{ID: "u1", Name: "設計師 (範例)", Role: models.RoleStylist, Quota: models.DefaultQuota},
		{ID: "admin", Name: "管理員", Role: models.RoleAdmin, Quota: models.DefaultQuota},
	}
}
