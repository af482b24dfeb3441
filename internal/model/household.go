package model

import "time"

// ShoppingItem is one line on the shared shopping list.
type ShoppingItem struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Bought    bool      `json:"bought"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Recipe struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Steps     []string  `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}

// Photo keeps an uploaded picture inline as a data URL. Date is the
// upload time as the browser reported it.
type Photo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Src       string    `json:"src"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary holds the dashboard counts.
type Summary struct {
	Medications  int `json:"medications"`
	Appointments int `json:"appointments"`
	Shopping     int `json:"shopping"`
	Recipes      int `json:"recipes"`
	Photos       int `json:"photos"`
}
