package dashboard

// htmlTpl 看板页面模板，数据以 JSON 内嵌，过滤和绘图在浏览器端完成
const htmlTpl = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Startup Trends Dashboard</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; max-width: 1100px; margin: 0 auto; padding: 20px; line-height: 1.6; color: #333; }
        h1 { text-align: center; color: #2c3e50; margin-bottom: 4px; }
        .subtitle { text-align: center; color: #7f8c8d; margin-bottom: 30px; }
        .stats { display: flex; gap: 16px; margin-bottom: 30px; }
        .stat-box { flex: 1; background-color: #ecf0f1; padding: 20px; border-radius: 10px; text-align: center; }
        .stat-box h3 { margin: 0; font-size: 1.6em; }
        .stat-box p { margin: 5px 0 0 0; color: #7f8c8d; }
        .stat-blue h3 { color: #3498db; } .stat-red h3 { color: #e74c3c; } .stat-green h3 { color: #27ae60; }
        .filter { margin-bottom: 30px; }
        .filter label { font-weight: bold; margin-right: 10px; }
        .charts { display: grid; grid-template-columns: 1fr 1fr; gap: 24px; margin-bottom: 30px; }
        .chart-box h3 { text-align: center; color: #2c3e50; }
        table { width: 100%; border-collapse: collapse; font-size: 0.92em; }
        th, td { border-bottom: 1px solid #eee; padding: 8px 10px; text-align: left; }
        th { background-color: #f9f9f9; color: #2c3e50; }
    </style>
</head>
<body>
    <h1>Startup Trends Dashboard</h1>
    <p class="subtitle">{{ .Date }} • Powered by LLM Natural Language Categorization</p>

    <div class="stats">
        <div class="stat-box stat-blue"><h3>{{ .TotalStartups }}</h3><p>Total Startups</p></div>
        <div class="stat-box stat-red"><h3>{{ .CategoryCount }}</h3><p>Categories</p></div>
        <div class="stat-box stat-green"><h3>{{ .TotalFunding }}</h3><p>Total Funding</p></div>
    </div>

    <div class="filter">
        <label for="category-filter">Filter by Category:</label>
        <select id="category-filter">
            <option value="all">All Categories</option>
            {{range .Categories}}<option value="{{.}}">{{.}}</option>{{end}}
        </select>
    </div>

    <div class="charts">
        <div class="chart-box"><h3>Startups by Category</h3><canvas id="category-pie"></canvas></div>
        <div class="chart-box"><h3>Funding by Category</h3><canvas id="funding-bar"></canvas></div>
        <div class="chart-box"><h3>Top Themes</h3><canvas id="themes-bar"></canvas></div>
        <div class="chart-box"><h3>Funding Distribution</h3><canvas id="funding-scatter"></canvas></div>
    </div>

    <h3 style="text-align:center; color:#2c3e50;">Startup Details</h3>
    <table>
        <thead><tr><th>Name</th><th>Category</th><th>Subcategory</th><th>Funding</th><th>Founded</th><th>Momentum</th><th>Themes</th></tr></thead>
        <tbody id="detail-rows"></tbody>
    </table>

<script>
const allRecords = {{ .RecordsJSON }};
const palette = ['#3498db','#e74c3c','#27ae60','#f39c12','#9b59b6','#1abc9c','#e67e22','#34495e','#7f8c8d','#c0392b','#2980b9','#16a085'];
let charts = {};

function filterRecords(category) {
    if (category === 'all') return allRecords;
    return allRecords.filter(r => r.category === category);
}

function countBy(records, key) {
    const m = {};
    records.forEach(r => { const v = r[key] || 'Other'; m[v] = (m[v] || 0) + 1; });
    return m;
}

function themeCounts(records) {
    const m = {};
    records.forEach(r => (r.themes || '').split(',').forEach(t => {
        t = t.trim();
        if (t) m[t] = (m[t] || 0) + 1;
    }));
    return Object.entries(m).sort((a, b) => b[1] - a[1]).slice(0, 10);
}

function destroy(id) { if (charts[id]) charts[id].destroy(); }

function render(category) {
    const records = filterRecords(category);

    const cats = countBy(records, 'category');
    destroy('pie');
    charts.pie = new Chart(document.getElementById('category-pie'), {
        type: 'pie',
        data: { labels: Object.keys(cats), datasets: [{ data: Object.values(cats), backgroundColor: palette }] }
    });

    const funding = {};
    records.forEach(r => { funding[r.category] = (funding[r.category] || 0) + r.funding_total; });
    const inBillions = Object.values(funding).reduce((a, b) => a + b, 0) >= 1e9;
    const unit = inBillions ? 1e9 : 1e6;
    destroy('bar');
    charts.bar = new Chart(document.getElementById('funding-bar'), {
        type: 'bar',
        options: { indexAxis: 'y', plugins: { legend: { display: false } },
                   scales: { x: { title: { display: true, text: inBillions ? 'Funding ($B)' : 'Funding ($M)' } } } },
        data: { labels: Object.keys(funding),
                datasets: [{ data: Object.values(funding).map(v => v / unit), backgroundColor: '#3498db' }] }
    });

    const themes = themeCounts(records);
    destroy('themes');
    charts.themes = new Chart(document.getElementById('themes-bar'), {
        type: 'bar',
        options: { indexAxis: 'y', plugins: { legend: { display: false } } },
        data: { labels: themes.map(t => t[0]), datasets: [{ data: themes.map(t => t[1]), backgroundColor: '#2980b9' }] }
    });

    destroy('scatter');
    charts.scatter = new Chart(document.getElementById('funding-scatter'), {
        type: 'scatter',
        options: { plugins: { legend: { display: false },
                              tooltip: { callbacks: { label: ctx => records[ctx.dataIndex].name } } },
                   scales: { x: { title: { display: true, text: 'Founded Year' } },
                             y: { title: { display: true, text: 'Funding ($M)' } } } },
        data: { datasets: [{ data: records.map(r => ({ x: r.founded_year, y: r.funding_total / 1e6 })),
                             backgroundColor: '#9b59b6' }] }
    });

    const tbody = document.getElementById('detail-rows');
    tbody.innerHTML = '';
    records.forEach(r => {
        const tr = document.createElement('tr');
        [r.name, r.category, r.subcategory, r.funding_display, r.founded_year || '', r.combined_momentum.toFixed(1), r.themes]
            .forEach(v => { const td = document.createElement('td'); td.textContent = v; tr.appendChild(td); });
        tbody.appendChild(tr);
    });
}

document.getElementById('category-filter').addEventListener('change', e => render(e.target.value));
render('all');
</script>
</body>
</html>`
