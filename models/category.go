package models

import "time"

// Category is a node in the subject tree (physics, chemistry, ...).
type Category struct {
	CategoryID       uint      `gorm:"primaryKey;column:category_id" json:"category_id"`
	NameAr           string    `gorm:"column:name_ar;size:100" json:"name_ar"`
	NameEn           *string   `gorm:"column:name_en;size:100" json:"name_en,omitempty"`
	Slug             string    `gorm:"column:slug;size:100;uniqueIndex" json:"slug"`
	DescriptionAr    *string   `gorm:"column:description_ar" json:"description_ar,omitempty"`
	DescriptionEn    *string   `gorm:"column:description_en" json:"description_en,omitempty"`
	ParentCategoryID *uint     `gorm:"column:parent_category_id;index" json:"parent_category_id,omitempty"`
	DisplayOrder     int       `gorm:"column:display_order;default:0" json:"display_order"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Filled by listing queries only.
	ContentCount int64 `gorm:"-" json:"content_count"`
}

func (Category) TableName() string {
	return "categories"
}

// DefaultCategories is the seed set installed by `diwanctl seed-categories`.
var DefaultCategories = []Category{
	{NameAr: "الفيزياء", NameEn: strPtr("Physics"), Slug: "physics", DescriptionAr: strPtr("علم دراسة المادة والطاقة والقوى"), DisplayOrder: 1},
	{NameAr: "الكيمياء", NameEn: strPtr("Chemistry"), Slug: "chemistry", DescriptionAr: strPtr("علم دراسة المواد وخصائصها وتفاعلاتها"), DisplayOrder: 2},
	{NameAr: "الأحياء", NameEn: strPtr("Biology"), Slug: "biology", DescriptionAr: strPtr("علم دراسة الكائنات الحية"), DisplayOrder: 3},
	{NameAr: "الطاقة", NameEn: strPtr("Energy"), Slug: "energy", DescriptionAr: strPtr("دراسة مصادر الطاقة وتطبيقاتها"), DisplayOrder: 4},
	{NameAr: "الهندسة", NameEn: strPtr("Engineering"), Slug: "engineering", DescriptionAr: strPtr("تطبيق العلوم في التصميم والبناء"), DisplayOrder: 5},
	{NameAr: "الطبيعة", NameEn: strPtr("Nature"), Slug: "nature", DescriptionAr: strPtr("دراسة العالم الطبيعي والبيئة"), DisplayOrder: 6},
}

func strPtr(value string) *string {
	return &value
}
