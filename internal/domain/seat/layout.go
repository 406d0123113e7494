package seat

// GenerateLayout は2+1配列のバス座席表を生成する。
// 座席数と番号は車両レイアウトのみで決まり、便の属性には依存しない。
// 永続化は呼び出し側の責務。
func GenerateLayout(journeyID int64) []*Seat {
	seats := make([]*Seat, 0, 37)
	add := func(number, row, column int, t Type) {
		seats = append(seats, NewSeat(journeyID, number, row, column, t))
	}
	// 1列席・通路側・窓側の3席を1行に並べる
	addRow := func(first, row int) {
		add(first, row, 1, TypeSingle)
		add(first+1, row, 4, TypeAisle)
		add(first+2, row, 5, TypeWindow)
	}

	// 前方 (1-6列)
	for r := 1; r <= 6; r++ {
		addRow(1+(r-1)*3, r)
	}

	// 乗降口前 (7列)
	add(19, 7, 1, TypeSingle)
	add(22, 7, 4, TypeAisle)
	add(23, 7, 5, TypeWindow)

	// 乗降口横は左側のみ (8-9列)
	add(20, 8, 1, TypeSingle)
	add(21, 9, 1, TypeSingle)

	// 後方 (10-13列)
	row := 10
	for _, first := range []int{24, 27, 30, 33} {
		addRow(first, row)
		row++
	}

	// 最後列は右側のみ (14列)
	add(37, 14, 4, TypeAisle)
	add(38, 14, 5, TypeWindow)

	return seats
}
