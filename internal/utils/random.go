package utils

import (
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/shiftcash-dev/shift-planner/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleNormalUser,
	domain.RoleAdmin,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

var expenseNames = []string{"房租", "水电费", "网费", "伙食费", "交通费", "话费", "日用品"}
var depositNames = []string{"工资", "兼职收入", "转账"}

// GenerateRandomPlan 随机生成一个月度计划，数据表的形状贴近真实的月度现金流
func GenerateRandomPlan(ownerID int64) *domain.Plan {
	plan := &domain.Plan{
		OwnerID:             ownerID,
		Name:                "计划" + GenerateRandomID(3, 3),
		Description:         "计划描述" + GenerateRandomID(20, 10),
		StartingBalance:     float64(rand.Intn(2000) + 500),
		MinimumBalance:      float64(rand.Intn(300) + 100),
		Expenses:            make([]domain.Expense, 0),
		Deposits:            make([]domain.Deposit, 0),
		ShiftTypes:          domain.DefaultShiftTypes(),
		ManualConstraints:   make([]domain.ManualConstraint, 0),
	}
	plan.TargetEndingBalance = plan.StartingBalance + float64(rand.Intn(1000))

	// 月初集中几笔大额支出，月中零散小额支出
	expensesNum := rand.Intn(5) + 2
	for i := 0; i < expensesNum; i++ {
		day := rand.Intn(domain.HorizonDays) + 1
		if i == 0 {
			day = rand.Intn(5) + 1 // 房租总是在月初
		}
		plan.Expenses = append(plan.Expenses, domain.Expense{
			Day:    day,
			Name:   expenseNames[rand.Intn(len(expenseNames))],
			Amount: float64(rand.Intn(400) + 50),
		})
	}

	depositsNum := rand.Intn(2) + 1
	for i := 0; i < depositsNum; i++ {
		plan.Deposits = append(plan.Deposits, domain.Deposit{
			Day:    rand.Intn(domain.HorizonDays) + 1,
			Name:   depositNames[rand.Intn(len(depositNames))],
			Amount: float64(rand.Intn(600) + 100),
		})
	}

	return plan
}
