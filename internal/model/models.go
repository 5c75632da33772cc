package model

type Profile struct {
	ID                        string  `json:"id" db:"id"`
	Email                     string  `json:"email" db:"email"`
	PasswordHash              string  `json:"-" db:"password_hash"`
	Username                  string  `json:"username" db:"username"`
	DisplayName               *string `json:"display_name" db:"display_name"`
	Bio                       *string `json:"bio" db:"bio"`
	AvatarURL                 *string `json:"avatar_url" db:"avatar_url"`
	Coins                     int64   `json:"coins" db:"coins"`
	IsAdmin                   bool    `json:"is_admin" db:"is_admin"`
	CreatedAt                 int64   `json:"created_at" db:"created_at"`
	UpdatedAt                 int64   `json:"updated_at" db:"updated_at"`
	PasswordResetTokenHash    *string `json:"-" db:"password_reset_token_hash"`
	PasswordResetTokenExpires *int64  `json:"-" db:"password_reset_token_expires_at"`
}

type Novel struct {
	ID          string    `json:"id" db:"id"`
	AuthorID    string    `json:"author_id" db:"author_id"`
	AuthorName  string    `json:"author_name,omitempty" db:"-"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	CoverImage  *string   `json:"cover_image" db:"cover_image"`
	Status      string    `json:"status" db:"status"` // ENUM as string: Ongoing, Completed, Hiatus
	Rating      float64   `json:"rating" db:"rating"`
	Views       int64     `json:"views" db:"views"`
	Bookmarks   int64     `json:"bookmarks" db:"bookmarks"`
	Genres      []string  `json:"genres,omitempty" db:"-"`
	Tags        []string  `json:"tags,omitempty" db:"-"`
	Chapters    []Chapter `json:"chapters,omitempty" db:"-"`
	CreatedAt   int64     `json:"created_at" db:"created_at"`
	UpdatedAt   int64     `json:"updated_at" db:"updated_at"`
}

type Chapter struct {
	ID            string `json:"id" db:"id"`
	NovelID       string `json:"novel_id" db:"novel_id"`
	ChapterNumber int    `json:"chapter_number" db:"chapter_number"`
	Title         string `json:"title" db:"title"`
	Content       string `json:"content,omitempty" db:"content"`
	IsPremium     bool   `json:"is_premium" db:"is_premium"`
	CoinCost      int64  `json:"coin_cost" db:"coin_cost"`
	Views         int64  `json:"views" db:"views"`
	CreatedAt     int64  `json:"created_at" db:"created_at"`
	UpdatedAt     int64  `json:"updated_at" db:"updated_at"`
}

// Purchase is the durable proof that a user unlocked a premium chapter.
// Rows are write-once; existence of (user_id, chapter_id) is the unlock
// predicate.
type Purchase struct {
	ID         string `json:"id" db:"id"`
	UserID     string `json:"user_id" db:"user_id"`
	ChapterID  string `json:"chapter_id" db:"chapter_id"`
	CoinAmount int64  `json:"coin_amount" db:"coin_amount"`
	CreatedAt  int64  `json:"created_at" db:"created_at"`
}

// CoinTransaction is an append-only ledger entry. Amount is signed: debits
// negative, credits positive.
type CoinTransaction struct {
	ID              string  `json:"id" db:"id"`
	UserID          string  `json:"user_id" db:"user_id"`
	Amount          int64   `json:"amount" db:"amount"`
	TransactionType string  `json:"transaction_type" db:"transaction_type"`
	ReferenceID     *string `json:"reference_id" db:"reference_id"`
	Description     *string `json:"description" db:"description"`
	CreatedAt       int64   `json:"created_at" db:"created_at"`
}

// Ledger transaction types.
const (
	TxPurchase     = "purchase"
	TxSale         = "sale"
	TxAdminAdd     = "admin_add"
	TxAdminDeduct  = "admin_deduct"
	TxCoinPurchase = "coin_purchase"
)

type CoinPackage struct {
	ID          string  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	CoinAmount  int64   `json:"coin_amount" db:"coin_amount"`
	Price       float64 `json:"price" db:"price"`
	Currency    string  `json:"currency" db:"currency"`
	Description *string `json:"description" db:"description"`
	IsActive    bool    `json:"is_active" db:"is_active"`
	IsFeatured  bool    `json:"is_featured" db:"is_featured"`
	CreatedAt   int64   `json:"created_at" db:"created_at"`
	UpdatedAt   int64   `json:"updated_at" db:"updated_at"`
}

type Bookmark struct {
	ID        string `json:"id" db:"id"`
	UserID    string `json:"user_id" db:"user_id"`
	NovelID   string `json:"novel_id" db:"novel_id"`
	Novel     *Novel `json:"novel,omitempty" db:"-"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

type NovelRating struct {
	ID        string  `json:"id" db:"id"`
	UserID    string  `json:"user_id" db:"user_id"`
	NovelID   string  `json:"novel_id" db:"novel_id"`
	Rating    int     `json:"rating" db:"rating"`
	Comment   *string `json:"comment" db:"comment"`
	CreatedAt int64   `json:"created_at" db:"created_at"`
	UpdatedAt *int64  `json:"updated_at" db:"updated_at"`
}

type ReadingHistory struct {
	ID           string   `json:"id" db:"id"`
	UserID       string   `json:"user_id" db:"user_id"`
	NovelID      string   `json:"novel_id" db:"novel_id"`
	ChapterID    string   `json:"chapter_id" db:"chapter_id"`
	LastPosition *float64 `json:"last_position" db:"last_position"`
	ReadAt       int64    `json:"read_at" db:"read_at"`
}

type Genre struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Tag struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Page struct {
	ID        string `json:"id" db:"id"`
	Slug      string `json:"slug" db:"slug"`
	Title     string `json:"title" db:"title"`
	Content   string `json:"content" db:"content"`
	Published bool   `json:"published" db:"published"`
	InMenu    bool   `json:"in_menu" db:"in_menu"`
	MenuOrder *int   `json:"menu_order" db:"menu_order"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
	UpdatedAt int64  `json:"updated_at" db:"updated_at"`
}

type MenuItem struct {
	ID           string  `json:"id" db:"id"`
	Title        string  `json:"title" db:"title"`
	URL          string  `json:"url" db:"url"`
	MenuLocation string  `json:"menu_location" db:"menu_location"`
	DisplayOrder int     `json:"display_order" db:"display_order"`
	ParentID     *string `json:"parent_id" db:"parent_id"`
	IsActive     bool    `json:"is_active" db:"is_active"`
	CreatedAt    int64   `json:"created_at" db:"created_at"`
	UpdatedAt    int64   `json:"updated_at" db:"updated_at"`
}

// PaymentSetting stores a payment provider's configuration as opaque JSON.
// The server never calls the provider itself.
type PaymentSetting struct {
	ID        string `json:"id" db:"id"`
	Provider  string `json:"provider" db:"provider"`
	IsEnabled bool   `json:"is_enabled" db:"is_enabled"`
	Config    string `json:"config" db:"config"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
	UpdatedAt int64  `json:"updated_at" db:"updated_at"`
}

type SiteSettings struct {
	ID             string `json:"id" db:"id"`
	SiteName       string `json:"site_name" db:"site_name"`
	SiteTagline    string `json:"site_tagline" db:"site_tagline"`
	FooterSiteName string `json:"footer_site_name" db:"footer_site_name"`
	UpdatedAt      int64  `json:"updated_at" db:"updated_at"`
}

type FeaturedNovel struct {
	ID           string `json:"id" db:"id"`
	NovelID      string `json:"novel_id" db:"novel_id"`
	Novel        *Novel `json:"novel,omitempty" db:"-"`
	DisplayOrder int    `json:"display_order" db:"display_order"`
	CreatedAt    int64  `json:"created_at" db:"created_at"`
}

// AuthorCredit is a parked author-share payout awaiting replay after a
// failed credit attempt.
type AuthorCredit struct {
	ID         string  `json:"id" db:"id"`
	PurchaseID string  `json:"purchase_id" db:"purchase_id"`
	AuthorID   string  `json:"author_id" db:"author_id"`
	ChapterID  string  `json:"chapter_id" db:"chapter_id"`
	Amount     int64   `json:"amount" db:"amount"`
	Attempts   int     `json:"attempts" db:"attempts"`
	LastError  *string `json:"last_error" db:"last_error"`
	CreatedAt  int64   `json:"created_at" db:"created_at"`
	SettledAt  *int64  `json:"settled_at" db:"settled_at"`
}
